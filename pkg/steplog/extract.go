package steplog

import (
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	// SideLogPhrase ends the cofactor-stripping line that announces debug.log.
	SideLogPhrase = "saved in debug.log."

	// KeepWatersNote is prepended to the cofactor block of a dry run.
	KeepWatersNote = "NOTE: Add the '--wet' option at the command line to keep waters and cofactors."

	totalDeletedPrefix = "   Total deleted cofactors"
)

// Extraction is the result of ExtractBlocks, before cross-block edits.
type Extraction struct {
	Blocks Blocks
	// SideLog is set when the cofactor block says that debug.log was written.
	SideLog bool
}

type options struct {
	logger      logrus.FieldLogger
	sideLogPath string
}

type Option func(*options)

// WithLogger sets the logger used for warnings about degraded steps.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithSideLog sets the path of the debug.log file read by PostProcess.
func WithSideLog(path string) Option {
	return func(o *options) {
		o.sideLogPath = path
	}
}

func newOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		o.logger = l
	}
	return o
}

// Between returns the text following start up to the next end. The rest of
// the text is returned when end does not follow start; ok is false when
// start is not found at all.
func Between(text, start, end string) (string, bool) {
	pos := strings.Index(text, start)
	if pos == -1 {
		return "", false
	}
	body := text[pos+len(start):]
	if stop := strings.Index(body, end); stop != -1 {
		return body[:stop], true
	}
	return body, true
}

func splitLines(body string) []string {
	body = strings.ReplaceAll(body, "\r\n", "\n")
	body = strings.ReplaceAll(body, "\r", "\n")
	return strings.Split(body, "\n")
}

func dropBlank(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}

// ExtractBlocks splits text into the blocks described by specs. Blocks are
// handled in index order and each one independently; see PostProcess for the
// edits that depend on more than one block.
func ExtractBlocks(text string, specs *Specs, opts ...Option) *Extraction {
	o := newOptions(opts)
	ex := &Extraction{Blocks: Blocks{}}

	for _, spec := range specs.All() {
		body, found := Between(text, spec.StartMarker, EndMarker)
		if !found {
			o.logger.WithField("block", spec.Heading).Debug("Start marker not found")
			continue
		}
		lines, sideLog := specs.transform(spec, splitLines(body), o.logger)
		o.logger.WithFields(logrus.Fields{"block": spec.Heading, "transform": spec.Kind, "lines": len(lines)}).Debug("Block extracted")
		if sideLog {
			ex.SideLog = true
		}
		ex.Blocks = ex.Blocks.add(spec.Index, spec.Heading, dropBlank(lines))
	}
	return ex
}

func (s *Specs) transform(spec BlockSpec, lines []string, logger logrus.FieldLogger) ([]string, bool) {
	if spec.Kind == TransformRename {
		sort.Strings(lines)
	}
	if spec.LinePrefix == "" && spec.SkipMode == SkipNone {
		return lines, false
	}

	var labels *labeling
	if spec.Kind == TransformLabeling {
		labels = newLabeling()
	}
	sideLog := false
	out := make([]string, 0, len(lines))

	for _, line := range lines {
		if line == "" {
			continue
		}

		if labels != nil && labels.consume(line) {
			continue
		}

		if spec.Kind == TransformCofactors {
			if !sideLog && strings.HasSuffix(line, SideLogPhrase) {
				sideLog = true
			}
			if strings.HasPrefix(line, totalDeletedPrefix) {
				count, err := deletedCount(line)
				if err != nil {
					logger.WithError(err).WithField("line", line).Debug("Unreadable cofactor count")
				} else if count == 0 {
					continue
				} else {
					line = strings.TrimSpace(line)
				}
			}
		}

		if spec.skip(line) {
			continue
		}
		if spec.LinePrefix != "" {
			line = strings.TrimPrefix(line, spec.LinePrefix)
		}
		out = append(out, line)
	}

	if spec.Kind == TransformCofactors && s.dry {
		out = append([]string{KeepWatersNote}, out...)
	}
	if labels != nil {
		out = append(out, labels.entries(s.renamingFile, s.topologyDir, logger)...)
	}
	return out, sideLog
}

// deletedCount reads N from "   Total deleted cofactors = N.".
func deletedCount(line string) (int, error) {
	fields := strings.Fields(line)
	last := fields[len(fields)-1]
	return strconv.Atoi(last[:len(last)-1])
}
