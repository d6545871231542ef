package chat

import (
	"bytes"
	_ "embed"
	"fmt"
	"text/template"

	"doc-chat-backend/model"
)

//go:embed prompts/rag.txt
var ragPrompt string

var promptTemplate = template.Must(
	template.New("rag").Funcs(template.FuncMap{
		"roleName": roleName,
	}).Parse(ragPrompt),
)

type referencePair struct {
	Question string
	Answer   string
}

type contextBlock struct {
	FileName string
	Text     string
}

type promptData struct {
	References []referencePair
	Contexts   []contextBlock
	History    []model.Message
	Question   string
}

func buildPrompt(data promptData) (string, error) {
	var buf bytes.Buffer
	if err := promptTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %v", err)
	}
	return buf.String(), nil
}

func roleName(role model.Role) string {
	if role == model.RoleAI {
		return "助手"
	}
	return "用户"
}
