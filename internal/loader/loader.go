package loader

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
)

// DefaultCandidates are tried in order against the base URL: the site root,
// the current directory and the parent directory.
var DefaultCandidates = []string{"/reports.html", "./reports.html", "../reports.html"}

// ErrNoSource matches every *LoadError via errors.Is.
var ErrNoSource = errors.New("no report index source available")

// Getter fetches a single URL. fetch.Client satisfies it.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, string, error)
}

// Choice is the operator's answer when no candidate location worked.
type Choice int

const (
	// ChooseAbort ends acquisition with an instruction on where to place the file.
	ChooseAbort Choice = iota
	// ChoosePick asks the Picker for a local file.
	ChoosePick
)

// Decider asks the operator how to proceed after every candidate failed.
type Decider interface {
	Decide(ctx context.Context, question string) (Choice, error)
}

// Picker lets the operator select a local HTML file. ok is false when the
// selection was dismissed.
type Picker interface {
	Pick(ctx context.Context) (content []byte, name string, ok bool, err error)
}

// DeciderFunc adapts a function to the Decider interface.
type DeciderFunc func(ctx context.Context, question string) (Choice, error)

func (f DeciderFunc) Decide(ctx context.Context, q string) (Choice, error) { return f(ctx, q) }

// Reason tells why acquisition failed.
type Reason string

const (
	ReasonDeclined    Reason = "declined"
	ReasonNoSelection Reason = "no_selection"
)

// Attempt records one failed candidate location.
type Attempt struct {
	Location string
	Err      error
}

// LoadError is returned when no HTML source could be obtained.
type LoadError struct {
	Reason   Reason
	Attempts []Attempt
	// Instruction tells the operator how to make the index reachable.
	Instruction string
	Err         error
}

func (e *LoadError) Error() string {
	var b strings.Builder
	b.WriteString("load report index: ")
	switch e.Reason {
	case ReasonDeclined:
		b.WriteString("no candidate location succeeded and manual selection was declined")
	default:
		b.WriteString("no candidate location succeeded and no file was selected")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if e.Instruction != "" {
		b.WriteString("; ")
		b.WriteString(e.Instruction)
	}
	return b.String()
}

func (e *LoadError) Unwrap() error { return e.Err }

func (e *LoadError) Is(target error) bool { return target == ErrNoSource }

// Loader obtains the raw index page.
type Loader struct {
	// BaseURL is the location candidates are resolved against.
	BaseURL string
	// Candidates defaults to DefaultCandidates.
	Candidates []string
	Getter     Getter
	// Decider is consulted once all candidates failed. Nil means abort.
	Decider Decider
	// Picker supplies a local file when the operator chooses to pick one.
	Picker Picker
	// PlacementHint names where the operator should put the index file.
	PlacementHint string
}

// Question is shown to the operator before the manual selection fallback.
const Question = "reports.html could not be loaded automatically.\n" +
	"Choose yes to select the file manually, or no to place it in the public directory and retry"

// Acquire tries each candidate once, in order, and returns the first
// successful body with its origin. When all fail it falls back to the
// operator decision.
func (l *Loader) Acquire(ctx context.Context) ([]byte, string, error) {
	locations, err := l.locations()
	if err != nil {
		return nil, "", err
	}
	var attempts []Attempt
	if l.Getter != nil {
		for _, loc := range locations {
			if err := ctx.Err(); err != nil {
				return nil, "", err
			}
			body, _, err := l.Getter.Get(ctx, loc)
			if err != nil {
				log.Debug().Err(err).Str("location", loc).Msg("candidate failed")
				attempts = append(attempts, Attempt{Location: loc, Err: err})
				continue
			}
			log.Info().Str("location", loc).Int("bytes", len(body)).Msg("loaded report index")
			return body, loc, nil
		}
	}

	log.Warn().Int("attempts", len(attempts)).Msg("report index not reachable; asking operator")
	choice := ChooseAbort
	if l.Decider != nil {
		c, err := l.Decider.Decide(ctx, Question)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, "", ctxErr
			}
			return nil, "", l.fail(ReasonDeclined, attempts, err)
		}
		choice = c
	}
	if choice != ChoosePick {
		return nil, "", l.fail(ReasonDeclined, attempts, nil)
	}
	if l.Picker == nil {
		return nil, "", l.fail(ReasonNoSelection, attempts, nil)
	}
	content, name, ok, err := l.Picker.Pick(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, "", ctxErr
		}
		log.Warn().Err(err).Msg("reading selected file failed")
		return nil, "", l.fail(ReasonNoSelection, attempts, err)
	}
	if !ok || content == nil {
		return nil, "", l.fail(ReasonNoSelection, attempts, nil)
	}
	log.Info().Str("file", name).Int("bytes", len(content)).Msg("loaded report index from selected file")
	return content, name, nil
}

func (l *Loader) fail(reason Reason, attempts []Attempt, err error) *LoadError {
	hint := strings.TrimSpace(l.PlacementHint)
	if hint == "" {
		hint = "the public directory"
	}
	instr := fmt.Sprintf("place reports.html in %s and reload", hint)
	return &LoadError{Reason: reason, Attempts: attempts, Instruction: instr, Err: err}
}

// locations resolves the candidates against BaseURL, keeping their order.
func (l *Loader) locations() ([]string, error) {
	cands := l.Candidates
	if len(cands) == 0 {
		cands = DefaultCandidates
	}
	if strings.TrimSpace(l.BaseURL) == "" {
		return nil, nil
	}
	base, err := url.Parse(l.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	out := make([]string, 0, len(cands))
	for _, c := range cands {
		ref, err := url.Parse(c)
		if err != nil {
			return nil, fmt.Errorf("parse candidate %q: %w", c, err)
		}
		out = append(out, base.ResolveReference(ref).String())
	}
	return out, nil
}
