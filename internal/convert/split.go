package convert

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"audioconv/internal/cue"
	"audioconv/internal/faults"
	"audioconv/internal/jobctx"
	"audioconv/internal/logging"
	"audioconv/internal/tags"
)

const splitPrefix = "track_"

var splitTrackPattern = regexp.MustCompile(`^` + splitPrefix + `(\d+)\.wav$`)

type splitTrack struct {
	number string
	index  int
	path   string
}

// split decodes a disc image, cuts it at the cue sheet's breakpoints and
// encodes every track. Tracks already published stay in place if a later
// track fails.
func (w *work) split(ctx context.Context, sourceFields tags.Fields) ([]string, error) {
	cuePath, sheet, err := cue.Load(w.job.Source)
	if err != nil {
		return nil, err
	}
	w.logger.Info("splitting image", logging.String("cue", cuePath), logging.Int("tracks", len(sheet.Tracks)))

	wav, err := w.intermediate(ctx)
	if err != nil {
		return nil, err
	}
	defer w.keep(wav, filepath.Join(w.runner.namer.Dir(w.job.Source), baseName(w.job.Source)+w.job.Target.Extension()))

	trackDir := filepath.Join(w.scratch, "tracks")
	if err := os.MkdirAll(trackDir, 0o755); err != nil {
		return nil, faults.Wrap(faults.ErrConversionFailed, faults.StageSplit, "track dir", trackDir, err)
	}

	st := w.runner.table.Split()
	breakpoints := w.tools.invocation(faults.StageSplit, st.Breakpoints, []string{cuePath})
	splitter := w.tools.invocation(faults.StageSplit, st.Splitter, []string{"-a", splitPrefix, "-d", trackDir, "-o", "wav", wav})
	if err := w.runner.exec.Piped(jobctx.WithStage(ctx, string(faults.StageSplit)), breakpoints, splitter); err != nil {
		return nil, err
	}

	tracks, err := collectTracks(trackDir)
	if err != nil {
		return nil, err
	}
	if len(tracks) == 0 {
		return nil, &faults.ConversionError{Stage: faults.StageSplit, Tool: st.Splitter, Err: errors.New("no tracks produced")}
	}

	album := albumFields(sourceFields)
	base := baseName(w.job.Source)
	dir := w.runner.namer.Dir(w.job.Source)
	outputs := make([]string, 0, len(tracks))
	for _, track := range tracks {
		fields := sheet.TrackFields(track.index).Merge(album)
		output, err := w.runner.namer.ReserveName(dir, base+"_"+track.number, w.job.Target.Extension())
		if err != nil {
			return outputs, err
		}
		err = w.encodeFile(ctx, track.path, output, fields)
		w.runner.namer.Release(output)
		if err != nil {
			return outputs, err
		}
		w.logger.Debug("track encoded", logging.String("output", output), logging.Int("track", track.index))
		outputs = append(outputs, output)
	}
	return outputs, nil
}

func collectTracks(dir string) ([]splitTrack, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, faults.Wrap(faults.ErrConversionFailed, faults.StageSplit, "read tracks", dir, err)
	}
	var tracks []splitTrack
	for _, entry := range entries {
		m := splitTrackPattern.FindStringSubmatch(entry.Name())
		if m == nil || entry.IsDir() {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		tracks = append(tracks, splitTrack{number: m[1], index: n, path: filepath.Join(dir, entry.Name())})
	}
	sort.Slice(tracks, func(i, j int) bool { return tracks[i].index < tracks[j].index })
	return tracks, nil
}

// albumFields keeps only the source tags that apply to every track.
func albumFields(f tags.Fields) tags.Fields {
	return tags.Fields{
		Album:       f.Album,
		AlbumArtist: f.AlbumArtist,
		Artist:      f.Artist,
		Composer:    f.Composer,
		Genre:       f.Genre,
		Year:        f.Year,
		Disc:        f.Disc,
		DiscTotal:   f.DiscTotal,
	}
}
