// Package convert turns one source file into one encoded output (or one
// output per cue track) by driving external decoders and encoders.
//
// Runner.Convert is the only entry point. It resolves the tools a job
// needs before spawning anything, streams the decoder into the encoder
// when the decoder can write WAV to stdout, and falls back to a scratch
// WAV otherwise. Encoders always write a hidden partial file that is
// renamed onto the reserved output name only after encoding, optional
// verification and tagging succeed, so failed jobs leave nothing behind.
package convert
