package agents

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bookdistill/bookdistill/internal/costar"
	"github.com/bookdistill/bookdistill/internal/distill"
	"github.com/bookdistill/bookdistill/internal/llm"
	"github.com/bookdistill/bookdistill/internal/models"
)

// distillTemperature leans deterministic so that re-runs of the same range
// produce comparable narratives.
const distillTemperature = 0.2

const distillContext = `Your task is to create a distilled version of the pages taken out from a book, one that preserves its essence and impact while being more concise. Think of this as crafting a concentrated reading experience rather than a mere summary.
The distilled version consists of two kinds of content:

1. Core content: The most important ideas, insights, and arguments of the original text.
2. Transition content: The content that connects the core content and helps readers to follow the ideas of the author.

<Requirements for core content>:
Craft a flowing narrative that maintains the intellectual depth and distinctive perspective of the original text.
Focus particularly on the author's original insights, counterintuitive propositions, and unique analytical framework.
When encountering passages that offer groundbreaking perspectives or profound analysis, preserve them in their original form or with minimal modification - these moments are the heart of the work's contribution.
The result should feel like reading the original book in a more concentrated form - allowing readers to grasp the fundamental ideas, experience the author's perspective, and arrive at the same meaningful conclusions in less time.
However, do not sacrifice the coherent flow of the original work; use transition words and appropriate context for readers to follow the ideas of the author.
Essential elements to maintain:
- The author's distinctive voice, style, and intellectual approach
- Original and thought-provoking propositions that challenge conventional thinking
- Key arguments and the evidence that supports them
- Vivid examples and memorable moments that anchor complex concepts
- The logical progression that builds the author's unique perspective
- Significant passages that deserve to be quoted in full due to their exceptional insight or elegant expression
- The interconnections between ideas that reveal the author's broader philosophical or analytical framework
The goal is for readers to finish this concentrated version feeling they've truly experienced the heart of the work, not just learned about it.
Style the distilled version in a way that is engaging, interesting and easy to read.

<Requirements for transition content>:
The goal of the transition content is to form a coherent narrative that connects the core content and helps readers to follow the ideas of the author. The transition content guides the readers from the last core content to the next core content, by briefly concluding the last core content and briefly introducing the next core content.
- You are encouraged to use third person narrative to generate the transition content.
- The transition content should be concise and to the point.
- The length of the transition content should be much shorter than the core content for the sake of maintaining the coherent flow of the original work.
- Create transition content in between the core content, only if necessary. If the core content is continuous and coherent, you can skip the transition content.`

const distillResponse = `For core content, indicate from which page/pages the different parts of the distilled version use information, by putting the page numbers as a comma separated string in parentheses after the sentence e.g: (Core: x,y,z).
For transition content, indicate it is a transition content by adding the word "Transition" after the sentence. e.g: (Transition).

e.g:
This is sentence 1. Then this is sentence 2. (Core: 2,3,4) This is sentence 3. (Core: 5) This is a transition content. (Transition) This is sentence 4. (Core: 6,7) This is another transition content. (Transition) This is sentence 5. (Core: 8,9,10,11)

Return the answer in a json format:
{"result" : "formatted distilled version"}`

// Distiller compresses a run of pages into merged, attributed paragraphs.
type Distiller struct {
	client llm.Client
	model  string
}

// NewDistiller returns a distiller backed by the given client. model may be
// empty to use the client default.
func NewDistiller(client llm.Client, model string) *Distiller {
	return &Distiller{client: client, model: model}
}

// Distill prompts the model, parses the annotated reply, and merges short
// core paragraphs. It returns the first and last page numbers actually
// observed in the input, which the caller persists as the distilled page's
// bounds. A reply without the {"result": ...} envelope, without markers, or
// yielding no paragraphs fails with ErrMalformedReply.
func (d *Distiller) Distill(ctx context.Context, pages []models.Page) (startPage, endPage int, paragraphs []models.Paragraph, err error) {
	if len(pages) == 0 {
		return 0, 0, nil, fmt.Errorf("distill: no pages to distill")
	}

	pagesJSON, err := json.Marshal(pages)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("marshal pages: %w", err)
	}

	prompt, err := costar.New().
		Context(distillContext).
		Objective(fmt.Sprintf(
			"Here are the pages to distill:\n%s\nEach page contains a page_num and content.", pagesJSON)).
		Response(distillResponse).
		Build()
	if err != nil {
		return 0, 0, nil, err
	}

	result, err := d.client.Complete(ctx, &llm.Request{
		Prompt:       prompt,
		Model:        d.model,
		Temperature:  distillTemperature,
		JSONResponse: true,
	})
	if err != nil {
		return 0, 0, nil, fmt.Errorf("distillation model call: %w", err)
	}

	var envelope struct {
		Result *string `json:"result"`
	}
	if err := json.Unmarshal([]byte(result.Content), &envelope); err != nil {
		return 0, 0, nil, fmt.Errorf("%w: invalid JSON: %v", ErrMalformedReply, err)
	}
	if envelope.Result == nil {
		return 0, 0, nil, fmt.Errorf("%w: reply is missing the result field", ErrMalformedReply)
	}

	parsed, err := distill.Parse(*envelope.Result)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("%w: %w", ErrMalformedReply, err)
	}

	merged := distill.Merge(parsed)
	if len(merged) == 0 {
		return 0, 0, nil, fmt.Errorf("%w: distillation produced no paragraphs", ErrMalformedReply)
	}

	return pages[0].Num, pages[len(pages)-1].Num, merged, nil
}
