// Package llm provides a unified interface for interacting with Large Language Models.
//
// # Overview
//
// The Provider interface hides the differences between Gemini (the default),
// Ollama, OpenAI and Anthropic. Analysis generation, refinement and report
// chat only ever talk to a Provider.
//
// # Architecture
//
// Gemini and Ollama have native subpackages that define their own request
// types; adapters in this package bridge them. OpenAI and Anthropic go
// through langchaingo.
//
//	┌──────────────┐
//	│ llm package  │  ← Provider interface, NewProvider() factory, adapters
//	└──────┬───────┘
//	       ├──────────────┬──────────────┐
//	┌──────▼──────┐ ┌─────▼──────┐ ┌─────▼───────────┐
//	│ llm/gemini  │ │ llm/ollama │ │ langchaingo     │
//	│ (genai SDK) │ │ (api pkg)  │ │ openai/anthropic│
//	└─────────────┘ └────────────┘ └─────────────────┘
//
// # Structured Output
//
// Set ChatOptions.ResponseSchema to ask for a single JSON document.
// Gemini receives it as a response schema, Ollama as the "format" field.
// The langchaingo backends get JSON mode where available plus a system
// message that outlines the shape. Callers must still validate the reply.
//
// # Streaming Chat
//
//	stream, err := provider.ChatStream(ctx, messages, &llm.ChatOptions{Temperature: 0.7})
//	if err != nil {
//	    return err
//	}
//	for event := range stream {
//	    if event.Error != nil {
//	        return event.Error
//	    }
//	    fmt.Print(event.Content)
//	}
//
// Exactly one event has Done set, and it is the last one on the channel.
//
// # Error Handling
//
// Use errors.Is with ErrProviderUnavailable or ErrContextCanceled to tell
// transport failures from cancellation.
//
// # Configuration
//
//	llm:
//	  provider: gemini
//	  timeout: 90s
//	  gemini:
//	    model: gemini-2.5-flash
//	  ollama:
//	    host: http://localhost:11434
//	    model: llama3.2
//
// API keys fall back to GEMINI_API_KEY, OPENAI_API_KEY and ANTHROPIC_API_KEY.
//
// # Thread Safety
//
// All Provider implementations must be safe for concurrent use.
package llm
