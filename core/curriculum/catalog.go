package curriculum

import (
	"fmt"
	"io/fs"
	"path"
	"sort"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/learntocloud/ltc-backend/core"
	appfs "github.com/learntocloud/ltc-backend/fs"
)

var (
	// errors
	ErrPhaseNotFound = errors.New("phase not found")
	ErrTopicNotFound = errors.New("topic not found")
)

const contentDir = "content"

// Catalog is the immutable, in-memory view of the curriculum content.
// It is loaded once at start-up; all read paths are safe for concurrent use.
type Catalog struct {
	phases   []Phase
	byNumber map[int]int // phase number -> index in phases
}

// Load parses the embedded curriculum content files into a Catalog.
func Load() (*Catalog, error) {
	return LoadFS(appfs.FS, contentDir)
}

// LoadFS parses every .yml file under dir in fsys as one Phase each and
// validates the assembled catalog.
func LoadFS(fsys fs.FS, dir string) (*Catalog, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, errors.Wrapf(err, "reading content dir %s", dir)
	}

	phases := make([]Phase, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || path.Ext(name) != ".yml" {
			continue
		}
		raw, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", name)
		}
		var phase Phase
		if err = yaml.Unmarshal(raw, &phase); err != nil {
			return nil, errors.Wrapf(err, "parsing %s", name)
		}
		if err = validatePhase(name, phase); err != nil {
			return nil, err
		}
		phases = append(phases, phase)
	}

	sort.Slice(phases, func(i, j int) bool { return phases[i].Number < phases[j].Number })

	byNumber := make(map[int]int, len(phases))
	for i, p := range phases {
		if _, exists := byNumber[p.Number]; exists {
			return nil, core.NewValidationError(nil, core.FieldError{
				Field: "number", Error: fmt.Sprintf("duplicate phase number %d", p.Number),
			})
		}
		if p.Number != i {
			return nil, core.NewValidationError(nil, core.FieldError{
				Field: "number", Error: fmt.Sprintf("phase numbers must be contiguous from 0; missing phase %d", i),
			})
		}
		byNumber[p.Number] = i
	}
	if len(phases) == 0 {
		return nil, errors.New("no curriculum content found")
	}

	return &Catalog{phases: phases, byNumber: byNumber}, nil
}

// Phases returns all phases in curriculum order.
func (c *Catalog) Phases() []Phase {
	return c.phases
}

func (c *Catalog) Phase(number int) (Phase, error) {
	i, ok := c.byNumber[number]
	if !ok {
		return Phase{}, ErrPhaseNotFound
	}
	return c.phases[i], nil
}

func (c *Catalog) Topic(number int, slug string) (Topic, error) {
	phase, err := c.Phase(number)
	if err != nil {
		return Topic{}, err
	}
	topic, ok := phase.Topic(slug)
	if !ok {
		return Topic{}, ErrTopicNotFound
	}
	return topic, nil
}

// LastPhase returns the highest phase number.
func (c *Catalog) LastPhase() int {
	return c.phases[len(c.phases)-1].Number
}

func validatePhase(fname string, p Phase) error {
	fldErr := func(field, format string, args ...interface{}) error {
		return core.NewValidationError(
			errors.Errorf("invalid content file %s", fname),
			core.FieldError{Field: field, Error: fmt.Sprintf(format, args...)},
		)
	}

	if p.Number < 0 {
		return fldErr("number", "phase number cannot be negative")
	}
	if p.Slug == "" {
		return fldErr("slug", "phase slug is required")
	}
	if p.Name == "" {
		return fldErr("name", "phase name is required")
	}
	if len(p.Topics) == 0 {
		return fldErr("topics", "phase %q has no topics", p.Slug)
	}

	topicSlugs := make(map[string]bool, len(p.Topics))
	for _, t := range p.Topics {
		if t.Slug == "" {
			return fldErr("topics", "topic in phase %q has no slug", p.Slug)
		}
		if topicSlugs[t.Slug] {
			return fldErr("topics", "duplicate topic slug %q in phase %q", t.Slug, p.Slug)
		}
		topicSlugs[t.Slug] = true

		ids := make(map[string]bool, len(t.Steps)+len(t.Questions)+len(t.Checklist))
		checkID := func(kind, id string) error {
			if id == "" {
				return fldErr("topics", "%s in topic %q has no id", kind, t.Slug)
			}
			if ids[id] {
				return fldErr("topics", "duplicate item id %q in topic %q", id, t.Slug)
			}
			ids[id] = true
			return nil
		}
		for _, s := range t.Steps {
			if err := checkID("step", s.ID); err != nil {
				return err
			}
			if s.Title == "" {
				return fldErr("topics", "step %q in topic %q has no title", s.ID, t.Slug)
			}
		}
		for _, q := range t.Questions {
			if err := checkID("question", q.ID); err != nil {
				return err
			}
			if q.Prompt == "" {
				return fldErr("topics", "question %q in topic %q has no prompt", q.ID, t.Slug)
			}
		}
		for _, item := range t.Checklist {
			if err := checkID("checklist item", item.ID); err != nil {
				return err
			}
		}
	}

	if p.HandsOn != nil {
		if p.HandsOn.Project == "" {
			return fldErr("hands_on", "hands-on requirement in phase %q has no project name", p.Slug)
		}
		if len(p.HandsOn.Artifacts) == 0 {
			return fldErr("hands_on", "hands-on requirement %q must name at least one artifact", p.HandsOn.Project)
		}
	}
	return nil
}
