// Package mock provides test doubles for the ai interfaces: a deterministic
// embedder whose vectors depend only on the input text, and a scriptable
// reasoning agent that records the tasks it runs. Both support behavior
// injection through function fields.
package mock
