// Package prompt holds the analysis catalog and the prompt builder for
// Aura's AI-generated reports.
//
// # Overview
//
// The catalog is a closed set of [Kind] values. [Describe] returns the
// title, template and response [schema.Schema] for a kind; it fails only
// for a kind outside the set, which is a programming error reported as
// [ErrUnknownKind].
//
// [Validate] applies the form-level rules to a [Context] and returns a
// [*ValidationError] naming the offending field. Callers run it before
// submitting. [Build] re-checks the same rules and refuses with
// [ErrInvalidContext], so a bad context never reaches a provider.
//
// # Basic usage
//
//	c := prompt.ROIContext{InitiativeDescription: "A 6-week sales leadership program for managers"}
//	if err := prompt.Validate(c); err != nil {
//	    return err // show err to the user, do not submit
//	}
//	req, err := prompt.Build(prompt.KindROIForecast, c)
//	if err != nil {
//	    return err
//	}
//	resp, err := provider.Chat(ctx, req.Messages(), &llm.ChatOptions{
//	    Temperature:    0.5,
//	    ResponseSchema: req.Schema,
//	})
//
// # Refinement and chat
//
// [RefineInstruction] produces the prose-polishing prompt for a [Purpose].
// [ChatInstruction] produces the report-grounded system instruction used to
// seed a follow-up chat, and [GreetingRequest] is the synthetic first turn
// that makes the model introduce itself.
package prompt
