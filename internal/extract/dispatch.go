package extract

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// MsgTypeUndetermined is the outcome text for files whose media type cannot
// be resolved from their name.
const MsgTypeUndetermined = "type undetermined"

var (
	// ErrTypeUndetermined marks an Outcome for a file with no resolvable type.
	ErrTypeUndetermined = errors.New(MsgTypeUndetermined)
	// ErrUnsupportedType marks an Outcome for a type with no extractor.
	ErrUnsupportedType = errors.New("unsupported type")
)

// Extractor produces plain text from a file of one container format.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(ctx context.Context, path string) (string, error)

// Extract implements Extractor.
func (f ExtractorFunc) Extract(ctx context.Context, path string) (string, error) {
	return f(ctx, path)
}

// Outcome is the result of extracting one file. Text is always usable as
// search input: on failure it holds a human-readable description and Err
// holds the cause.
type Outcome struct {
	Type string
	Text string
	Err  error
}

// Failed reports whether Text describes a failure rather than file content.
func (o Outcome) Failed() bool { return o.Err != nil }

type entry struct {
	label string
	ex    Extractor
}

// Dispatcher selects an Extractor by media type.
type Dispatcher struct {
	byType map[string]entry
	detect func(path string) string
}

// New returns a Dispatcher with the built-in extractors registered.
func New() *Dispatcher {
	d := &Dispatcher{byType: map[string]entry{}, detect: DetectType}
	d.Register("PDF", PDF{}, TypePDF)
	d.Register("CSV", Delimited{Comma: ','}, TypeCSV)
	d.Register("TSV", Delimited{Comma: '\t'}, typeTSV)
	d.Register("Excel", Spreadsheet{}, TypeXLSX)
	d.Register("Text File", Text{}, TypeText, typeMarkdown)
	d.Register("Word File", Word{}, TypeDOCX)
	return d
}

// Register binds ex to each media type. label prefixes failure outcomes.
// Later registrations replace earlier ones for the same type.
func (d *Dispatcher) Register(label string, ex Extractor, mediaTypes ...string) {
	for _, t := range mediaTypes {
		d.byType[t] = entry{label: label, ex: ex}
	}
}

// Supported returns the registered media types in sorted order.
func (d *Dispatcher) Supported() []string {
	out := make([]string, 0, len(d.byType))
	for t := range d.byType {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Extract resolves path's media type and runs the matching extractor. It
// returns when the extractor finishes or ctx is done, whichever comes first.
func (d *Dispatcher) Extract(ctx context.Context, path string) Outcome {
	mt := d.detect(path)
	if mt == "" {
		return Outcome{Text: MsgTypeUndetermined, Err: ErrTypeUndetermined}
	}
	e, ok := d.byType[mt]
	if !ok {
		return Outcome{
			Type: mt,
			Text: fmt.Sprintf("unsupported type: %s", mt),
			Err:  fmt.Errorf("%w: %s", ErrUnsupportedType, mt),
		}
	}

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		text, err := e.ex.Extract(ctx, path)
		done <- result{text: text, err: err}
	}()

	var res result
	select {
	case res = <-done:
	case <-ctx.Done():
		res = result{err: ctx.Err()}
	}
	if res.err != nil {
		return Outcome{Type: mt, Text: fmt.Sprintf("%s Error: %v", e.label, res.err), Err: res.err}
	}
	return Outcome{Type: mt, Text: res.text}
}
