// Package configs embeds the default front desk persona and knowledge base.
// PROMPT_PATH and KNOWLEDGE_BASE_PATH override them at runtime.
package configs

import _ "embed"

//go:embed prompt.md
var Prompt string

//go:embed kb.yaml
var KnowledgeBase string
