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


package core

import (
	"fmt"
	"strings"
)

// ValidateSnippetInput validates the caller-supplied fields of a snippet.
//
// Validation rules:
//   - Name must not be empty (after trimming whitespace)
//   - ProjectID must not be empty
//   - Code must not be empty
//
// NOT validated (populated later):
//   - Vector (computed by the repository on upsert)
//   - Language and Description (optional; Language defaults separately)
func ValidateSnippetInput(name, projectID, code string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: %w", ErrValidation, ErrEmptyName)
	}
	if strings.TrimSpace(projectID) == "" {
		return fmt.Errorf("%w: %w", ErrValidation, ErrEmptyProjectID)
	}
	if strings.TrimSpace(code) == "" {
		return fmt.Errorf("%w: %w", ErrValidation, ErrEmptyCode)
	}
	return nil
}

// NormalizeLanguage returns the language tag to store for a snippet,
// substituting DefaultLanguage when the tag is absent.
func NormalizeLanguage(language string) string {
	language = strings.TrimSpace(language)
	if language == "" {
		return DefaultLanguage
	}
	return language
}
