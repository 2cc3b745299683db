// Package agentic implements a ReAct-style agent loop on top of
// LangChainGo models: the model reasons, calls tools, observes results,
// and repeats until it declares the task finished.
//
// The core pieces:
//
//   - Agent drives the loop over a Toolset and emits events to observers.
//   - LLM adapts any llms.Model to a uniform contract: every reply arrives
//     as canonical response JSON, provider failures are classified into a
//     typed error taxonomy, and transient failures are retried with
//     backoff.
//   - Tool wraps execution logic with JSON Schema validation and converts
//     every failure mode into a conversational tool message.
//   - Checkpoint persists a run's conversation and counters so it can be
//     resumed in another process.
//
// Subpackages: protocol normalizes model output dialects, schema validates
// tool arguments, tools holds the built-in tools, observers provides
// tracing and logging observers, config loads environment configuration,
// and eval validates file-navigation traces against mock filesystems.
//
// Minimal usage:
//
//	client, _ := openai.New(
//	    openai.WithBaseURL(agentic.DefaultBaseURL),
//	    openai.WithToken(apiKey),
//	)
//	llm := agentic.NewLLM(client, "openai/gpt-4o")
//	agent := agentic.NewAgent(llm, agentic.NewToolset(tools.NewCalculator()))
//	result, err := agent.Run(ctx, "What is 21 * 2?")
package agentic
