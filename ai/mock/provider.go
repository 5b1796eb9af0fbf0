// Copyright 2026 The Codemem Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package mock

import "github.com/codemem/codemem/ai"

// MockProvider is a test double for ai.AIProvider.
// It aggregates mock embedder and agent instances.
type MockProvider struct {
	embedder *MockEmbedder
	agent    *MockAgent
}

// NewMockProvider creates a new mock provider with default mock services.
//
// Returns ai.AIProvider interface for consistency with production
// constructors. Use GetMockEmbedder()/GetMockAgent() to access concrete
// types for test assertions.
func NewMockProvider() ai.AIProvider {
	return &MockProvider{
		embedder: NewMockEmbedder(),
		agent:    NewMockAgent(),
	}
}

// NewMockProviderWithServices creates a mock provider with custom services.
// This allows full control over the behavior of each service.
func NewMockProviderWithServices(embedder *MockEmbedder, agent *MockAgent) ai.AIProvider {
	return &MockProvider{
		embedder: embedder,
		agent:    agent,
	}
}

// Embedder returns the mock embedder.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

// Agent returns the mock agent.
func (p *MockProvider) Agent() ai.ReasoningAgent {
	return p.agent
}

// Close is a no-op for mock provider.
func (p *MockProvider) Close() error {
	return nil
}

// GetMockEmbedder returns the underlying mock embedder for test assertions.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

// GetMockAgent returns the underlying mock agent for test assertions.
func (p *MockProvider) GetMockAgent() *MockAgent {
	return p.agent
}
