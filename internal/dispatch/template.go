package dispatch

import (
	"encoding/json"
	"math/rand"
	"os"
	"strings"

	"github.com/prasetya/reminder-gateway/pkg/logger"
)

const messagePlaceholder = "{message}"

var fallbackTemplate = Template{
	Text: "*🔔 PENGINGAT 🔔*\n\n{message}\n\n------------------------------------------------\n_Pesan otomatis dari Reminder App_",
}

type Template struct {
	Text string `json:"text"`
}

// TemplateSet wraps reminder bodies in one of a set of message templates,
// chosen at random per dispatch so outgoing messages don't all look
// machine-identical. Pure formatting; it makes no scheduling decisions.
type TemplateSet struct {
	templates []Template
	rng       *rand.Rand
}

// LoadTemplates reads a JSON template file. A missing or malformed file is
// not fatal: the built-in fallback is used instead.
func LoadTemplates(path string, rng *rand.Rand) *TemplateSet {
	set := &TemplateSet{
		templates: []Template{fallbackTemplate},
		rng:       rng,
	}
	if path == "" {
		return set
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("failed to read message templates, using fallback", "path", path, "error", err)
		return set
	}

	var templates []Template
	if err := json.Unmarshal(raw, &templates); err != nil || len(templates) == 0 {
		logger.Warn("failed to parse message templates, using fallback", "path", path, "error", err)
		return set
	}

	set.templates = templates
	return set
}

// NewTemplateSet builds a set from in-memory templates; empty input gets
// the fallback.
func NewTemplateSet(templates []Template, rng *rand.Rand) *TemplateSet {
	if len(templates) == 0 {
		templates = []Template{fallbackTemplate}
	}
	return &TemplateSet{templates: templates, rng: rng}
}

func (s *TemplateSet) Render(body string) string {
	t := s.templates[0]
	if len(s.templates) > 1 && s.rng != nil {
		t = s.templates[s.rng.Intn(len(s.templates))]
	}
	return strings.Replace(t.Text, messagePlaceholder, body, 1)
}
