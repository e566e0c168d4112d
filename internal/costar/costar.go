// Package costar builds CO-STAR style instruction payloads for model calls.
// Sections are emitted in a fixed order: Context, Objective, Style, Tone,
// Audience, Response. Context, objective, and response are mandatory.
package costar

import (
	"errors"
	"fmt"
	"strings"
)

// ErrIncompletePrompt is returned by Build when a mandatory section is missing.
var ErrIncompletePrompt = errors.New("prompt is incomplete")

// Builder assembles a prompt section by section. Zero value is usable.
type Builder struct {
	context   string
	objective string
	style     string
	tone      string
	audience  string
	response  string
}

// New returns an empty Builder.
func New() *Builder {
	return &Builder{}
}

// Context sets the mandatory context section.
func (b *Builder) Context(text string) *Builder {
	b.context = text
	return b
}

// Objective sets the mandatory objective section.
func (b *Builder) Objective(text string) *Builder {
	b.objective = text
	return b
}

// Style sets the optional style section.
func (b *Builder) Style(text string) *Builder {
	b.style = text
	return b
}

// Tone sets the optional tone section.
func (b *Builder) Tone(text string) *Builder {
	b.tone = text
	return b
}

// Audience sets the optional audience section.
func (b *Builder) Audience(text string) *Builder {
	b.audience = text
	return b
}

// Response sets the mandatory response-format section.
func (b *Builder) Response(text string) *Builder {
	b.response = text
	return b
}

// Build renders the prompt. It is deterministic for identical inputs and
// performs no I/O.
func (b *Builder) Build() (string, error) {
	if b.context == "" {
		return "", fmt.Errorf("%w: missing context", ErrIncompletePrompt)
	}
	if b.objective == "" {
		return "", fmt.Errorf("%w: missing objective", ErrIncompletePrompt)
	}
	if b.response == "" {
		return "", fmt.Errorf("%w: missing response", ErrIncompletePrompt)
	}

	var sb strings.Builder
	writeSection(&sb, "CONTEXT", b.context)
	writeSection(&sb, "OBJECTIVE", b.objective)
	if b.style != "" {
		writeSection(&sb, "STYLE", b.style)
	}
	if b.tone != "" {
		writeSection(&sb, "TONE", b.tone)
	}
	if b.audience != "" {
		writeSection(&sb, "AUDIENCE", b.audience)
	}
	writeSection(&sb, "RESPONSE", b.response)

	return sb.String(), nil
}

func writeSection(sb *strings.Builder, name, text string) {
	fmt.Fprintf(sb, "# %s #\n\n%s\n\n", name, text)
}
