package testsupport

// Shell bodies for stub binaries. They move bytes around without touching
// audio so pipelines can be exercised without the real tools.
const (
	// StreamDecoderStub writes its last argument to stdout, or its second to
	// last when the last is "-" (the lame and wvunpack argument order).
	StreamDecoderStub = `last=""; prev=""
for a; do prev="$last"; last="$a"; done
if [ "$last" = "-" ]; then cat "$prev"; else cat "$last"; fi
`

	// OggencStub copies the input (last argument or stdin) to the -o target.
	// Comments are appended to $STUB_COMMENTS when it is set.
	OggencStub = `out=""; in=""; comments=""
while [ $# -gt 0 ]; do
  case "$1" in
    -o) out="$2"; shift 2 ;;
    -c) comments="$comments$2
"; shift 2 ;;
    *) in="$1"; shift ;;
  esac
done
if [ "$in" = "-" ]; then cat > "$out"; else cat "$in" > "$out"; fi
if [ -n "$STUB_COMMENTS" ]; then printf '%s' "$comments" >> "$STUB_COMMENTS"; fi
`

	// LameStub encodes "in out" or decodes "--decode in -".
	LameStub = `last=""; prev=""; decode=0
for a; do
  [ "$a" = "--decode" ] && decode=1
  prev="$last"; last="$a"
done
if [ $decode -eq 1 ]; then cat "$prev"; exit 0; fi
if [ "$prev" = "-" ]; then cat > "$last"; else cat "$prev" > "$last"; fi
`

	// FileDecoderStub handles "mac in out.wav -d".
	FileDecoderStub = `cat "$1" > "$2"
`

	// MplayerStub extracts the file= suboption and copies the input there.
	MplayerStub = `in=""; out=""
while [ $# -gt 0 ]; do
  case "$1" in
    -vo|-vc|-ao) [ "$1" = "-ao" ] && out="${2#pcm:fast:file=}"; shift 2 ;;
    -*) shift ;;
    *) in="$1"; shift ;;
  esac
done
out=$(printf '%s' "$out" | sed 's/\\,/,/g')
cat "$in" > "$out"
`

	// CuebreakpointsStub prints a single breakpoint, giving two tracks.
	CuebreakpointsStub = `printf '1:30.00\n'
`

	// ShnsplitStub reads breakpoints from stdin and writes one copy of the
	// input per track as <prefix>NN.wav in the -d directory.
	ShnsplitStub = `prefix="split"; dir="."; in=""
while [ $# -gt 0 ]; do
  case "$1" in
    -a) prefix="$2"; shift 2 ;;
    -d) dir="$2"; shift 2 ;;
    -o) shift 2 ;;
    *) in="$1"; shift ;;
  esac
done
n=1
cat "$in" > "$dir/${prefix}01.wav"
while read -r line; do
  n=$((n+1))
  cat "$in" > "$dir/${prefix}$(printf '%02d' $n).wav"
done
`

	// FailingStub writes a diagnostic and exits non-zero.
	FailingStub = `echo "stub: corrupt input stream" >&2
exit 2
`
)

// DefaultStub returns the pass-through stub body for a known tool name.
func DefaultStub(name string) string {
	switch name {
	case "oggenc":
		return OggencStub
	case "lame":
		return LameStub
	case "mac":
		return FileDecoderStub
	case "mplayer":
		return MplayerStub
	case "cuebreakpoints":
		return CuebreakpointsStub
	case "shnsplit":
		return ShnsplitStub
	default:
		return StreamDecoderStub
	}
}
