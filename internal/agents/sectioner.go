package agents

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/bookdistill/bookdistill/internal/costar"
	"github.com/bookdistill/bookdistill/internal/llm"
	"github.com/bookdistill/bookdistill/internal/models"
)

// PageRange is one proposed content section, inclusive on both ends.
type PageRange struct {
	StartPage int `json:"start-page"`
	EndPage   int `json:"end-page"`
}

type sectionReply struct {
	ContentSections []PageRange `json:"content-sections"`
}

// sectionReplySchema is the required envelope for sectioning replies.
// Replies are schema-validated before the range checks so that a shape
// error and a semantic error produce distinguishable messages.
const sectionReplySchema = `{
	"type": "object",
	"required": ["content-sections"],
	"properties": {
		"content-sections": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["start-page", "end-page"],
				"properties": {
					"start-page": {"type": "integer"},
					"end-page": {"type": "integer"}
				}
			}
		}
	}
}`

var compiledSectionSchema = jsonschema.MustCompileString("section_reply.json", sectionReplySchema)

const sectionObjective = "Your goal is to create appropriate content sections according to the content of the pages. " +
	"Each content section consists of pages that can be summarized all together. " +
	"Therefore each content section should revolve around a single (or closely related) concept. " +
	"Skip pages of 'Table of contents' and 'Appendix', do not include them in any final content sections."

const sectionResponse = "Return the answer in a json format, where each content section contains a start-page and end-page index, for example: " +
	`{"content-sections" : [{"start-page":x, "end-page":y}, {"start-page":y+1, "end-page":z}]}`

// Sectioner proposes content-section boundaries for one batch of pages.
type Sectioner struct {
	client llm.Client
	model  string
}

// NewSectioner returns a sectioner backed by the given client. model may be
// empty to use the client default.
func NewSectioner(client llm.Client, model string) *Sectioner {
	return &Sectioner{client: client, model: model}
}

// ProposeSections sends one batch of pages to the model and returns the
// accepted page ranges. Every range must satisfy start <= end and fall
// within the batch's own page numbers; anything else fails with
// ErrMalformedReply. Proposed boundaries are local to the batch.
func (s *Sectioner) ProposeSections(ctx context.Context, pages []models.Page) ([]PageRange, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("propose sections: empty page batch")
	}

	pagesJSON, err := json.Marshal(pages)
	if err != nil {
		return nil, fmt.Errorf("marshal pages: %w", err)
	}

	prompt, err := costar.New().
		Context(fmt.Sprintf(
			"You are the best book analyser in the world. "+
				"Given a list of book pages: %s "+
				"Each page contains a page number and its content.", pagesJSON)).
		Objective(sectionObjective).
		Response(sectionResponse).
		Build()
	if err != nil {
		return nil, err
	}

	result, err := s.client.Complete(ctx, &llm.Request{
		Prompt:       prompt,
		Model:        s.model,
		JSONResponse: true,
	})
	if err != nil {
		return nil, fmt.Errorf("sectioning model call: %w", err)
	}

	return parseSectionReply(result.Content, pages)
}

func parseSectionReply(content string, pages []models.Page) ([]PageRange, error) {
	var doc any
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", ErrMalformedReply, err)
	}
	if err := compiledSectionSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}

	var reply sectionReply
	if err := json.Unmarshal([]byte(content), &reply); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}

	first, last := pages[0].Num, pages[len(pages)-1].Num
	for _, r := range reply.ContentSections {
		if r.StartPage > r.EndPage {
			return nil, fmt.Errorf("%w: section %d-%d has start after end", ErrMalformedReply, r.StartPage, r.EndPage)
		}
		if r.StartPage < first || r.EndPage > last {
			return nil, fmt.Errorf("%w: section %d-%d outside batch range %d-%d", ErrMalformedReply, r.StartPage, r.EndPage, first, last)
		}
	}

	return reply.ContentSections, nil
}
