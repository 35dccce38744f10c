package hive

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Plan parsing: a task is any line of the form "### <integer>. <title>".
// A task's body extends to the next such heading (or document end).
// Within the body, a line "**Depends on**: a, b" declares dependencies
// by the integers used in other task headings; the literal "none" (any
// case) declares none.

var (
	taskHeadingRe = regexp.MustCompile(`(?m)^###\s+(\d+)\.\s+(.+)$`)
	dependsOnRe   = regexp.MustCompile(`(?m)^\*\*Depends on\*\*:\s*(.+)$`)
)

// Dependency is one parsed dependency reference. A reference that
// resolved to a parsed task carries its Folder; one that did not (a
// non-numeric token, or a number with no matching heading) keeps the
// Raw literal. This is a deliberate soft-fail: the parser is
// best-effort and never rejects a plan over a dangling reference.
type Dependency struct {
	Folder string
	Raw    string
}

// Resolved reports whether the reference matched a parsed task.
func (d Dependency) Resolved() bool { return d.Folder != "" }

// Ref returns the folder name for resolved references and the raw
// literal otherwise — the value persisted into dependsOn.
func (d Dependency) Ref() string {
	if d.Folder != "" {
		return d.Folder
	}
	return d.Raw
}

// PlanTask is one task parsed out of a plan document, in document order.
type PlanTask struct {
	Number  int
	Title   string
	Depends []Dependency
}

// Folder returns the task's on-disk folder name.
func (t PlanTask) Folder() string {
	return TaskFolder(t.Number, t.Title)
}

// TaskFolder builds the order-prefixed folder slug for a task: the
// number zero-padded to two digits, a hyphen, then the slugified title.
func TaskFolder(number int, title string) string {
	return fmt.Sprintf("%02d-%s", number, Slugify(title))
}

// ParsePlan extracts the ordered task list with dependency edges from a
// plan's Markdown body. Duplicate heading numbers are parsed
// independently; resolution of a duplicated number picks the first
// heading with that number, matching document order.
func ParsePlan(content string) []PlanTask {
	matches := taskHeadingRe.FindAllStringSubmatchIndex(content, -1)
	if len(matches) == 0 {
		return []PlanTask{}
	}

	type rawTask struct {
		number int
		title  string
		deps   []string
	}
	raw := make([]rawTask, 0, len(matches))

	for i, m := range matches {
		number, _ := strconv.Atoi(content[m[2]:m[3]])
		title := strings.TrimSpace(content[m[4]:m[5]])

		bodyStart := m[1]
		bodyEnd := len(content)
		if i+1 < len(matches) {
			bodyEnd = matches[i+1][0]
		}
		body := content[bodyStart:bodyEnd]

		var deps []string
		if dm := dependsOnRe.FindStringSubmatch(body); dm != nil {
			value := strings.ToLower(strings.TrimSpace(dm[1]))
			if value != "none" {
				for _, token := range strings.Split(value, ",") {
					if token = strings.TrimSpace(token); token != "" {
						deps = append(deps, token)
					}
				}
			}
		}

		raw = append(raw, rawTask{number: number, title: title, deps: deps})
	}

	// Resolve dependency integers against the parsed headings.
	tasks := make([]PlanTask, 0, len(raw))
	for _, r := range raw {
		task := PlanTask{Number: r.number, Title: r.title}
		for _, token := range r.deps {
			dep := Dependency{Raw: token}
			if n, err := strconv.Atoi(token); err == nil {
				for _, target := range raw {
					if target.number == n {
						dep.Folder = TaskFolder(target.number, target.title)
						break
					}
				}
			}
			task.Depends = append(task.Depends, dep)
		}
		tasks = append(tasks, task)
	}
	return tasks
}
