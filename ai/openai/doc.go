// Package openai implements the ai interfaces against OpenAI-compatible
// APIs (OpenAI, Ollama, LocalAI, vLLM) via langchaingo. The embedder and
// the reasoning agent may target different hosts and models; see ai.Config.
package openai
