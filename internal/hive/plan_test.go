package hive

import "testing"

func TestParsePlan_Empty(t *testing.T) {
	tasks := ParsePlan("")
	if len(tasks) != 0 {
		t.Fatalf("ParsePlan(\"\") = %d tasks, want 0", len(tasks))
	}
}

func TestParsePlan_NoHeadings(t *testing.T) {
	tasks := ParsePlan("# Overview\n\nJust prose, no task headings.\n## Not a task\n")
	if len(tasks) != 0 {
		t.Fatalf("ParsePlan = %d tasks, want 0", len(tasks))
	}
}

func TestParsePlan_Headings(t *testing.T) {
	plan := "# Plan\n\n### 1. Setup database\nSome body.\n\n### 2. Build API\nMore body.\n"
	tasks := ParsePlan(plan)
	if len(tasks) != 2 {
		t.Fatalf("ParsePlan = %d tasks, want 2", len(tasks))
	}
	if tasks[0].Number != 1 || tasks[0].Title != "Setup database" {
		t.Errorf("task[0] = %d %q", tasks[0].Number, tasks[0].Title)
	}
	if tasks[1].Folder() != "02-build-api" {
		t.Errorf("task[1].Folder = %q, want 02-build-api", tasks[1].Folder())
	}
}

func TestParsePlan_DependencyResolution(t *testing.T) {
	plan := "### 1. A\nbody\n\n### 2. B\n**Depends on**: 1\n"
	tasks := ParsePlan(plan)
	if len(tasks) != 2 {
		t.Fatalf("ParsePlan = %d tasks, want 2", len(tasks))
	}
	deps := tasks[1].Depends
	if len(deps) != 1 {
		t.Fatalf("task B deps = %d, want 1", len(deps))
	}
	if !deps[0].Resolved() || deps[0].Ref() != "01-a" {
		t.Errorf("dep = %+v, want resolved 01-a", deps[0])
	}
}

func TestParsePlan_DependsNone(t *testing.T) {
	for _, none := range []string{"none", "None", "NONE"} {
		plan := "### 1. A\n**Depends on**: " + none + "\n"
		tasks := ParsePlan(plan)
		if len(tasks[0].Depends) != 0 {
			t.Errorf("deps for %q = %d, want 0", none, len(tasks[0].Depends))
		}
	}
}

func TestParsePlan_MultipleDependencies(t *testing.T) {
	plan := "### 1. A\n\n### 2. B\n\n### 3. C\n**Depends on**: 1, 2\n"
	tasks := ParsePlan(plan)
	deps := tasks[2].Depends
	if len(deps) != 2 {
		t.Fatalf("deps = %d, want 2", len(deps))
	}
	if deps[0].Ref() != "01-a" || deps[1].Ref() != "02-b" {
		t.Errorf("deps = %q, %q", deps[0].Ref(), deps[1].Ref())
	}
}

func TestParsePlan_UnresolvedReferenceKeptAsLiteral(t *testing.T) {
	plan := "### 1. A\n**Depends on**: 9, setup-infra\n"
	tasks := ParsePlan(plan)
	deps := tasks[0].Depends
	if len(deps) != 2 {
		t.Fatalf("deps = %d, want 2", len(deps))
	}
	if deps[0].Resolved() || deps[0].Ref() != "9" {
		t.Errorf("dep[0] = %+v, want unresolved literal 9", deps[0])
	}
	if deps[1].Resolved() || deps[1].Ref() != "setup-infra" {
		t.Errorf("dep[1] = %+v, want unresolved literal setup-infra", deps[1])
	}
}

func TestParsePlan_DuplicateNumbersParsedIndependently(t *testing.T) {
	plan := "### 1. First\n\n### 1. Second\n"
	tasks := ParsePlan(plan)
	if len(tasks) != 2 {
		t.Fatalf("ParsePlan = %d tasks, want 2", len(tasks))
	}
	if tasks[0].Folder() != "01-first" || tasks[1].Folder() != "01-second" {
		t.Errorf("folders = %q, %q", tasks[0].Folder(), tasks[1].Folder())
	}
}

func TestParsePlan_DependsLineOnlyAppliesWithinBody(t *testing.T) {
	// The depends line under task 1 must not leak into task 2.
	plan := "### 1. A\n**Depends on**: none\n\n### 2. B\nbody only\n"
	tasks := ParsePlan(plan)
	if len(tasks[1].Depends) != 0 {
		t.Errorf("task B deps = %d, want 0", len(tasks[1].Depends))
	}
}

func TestTaskFolder_ZeroPadding(t *testing.T) {
	if got := TaskFolder(3, "Wire Up Auth"); got != "03-wire-up-auth" {
		t.Errorf("TaskFolder = %q, want 03-wire-up-auth", got)
	}
	if got := TaskFolder(12, "Ship"); got != "12-ship" {
		t.Errorf("TaskFolder = %q, want 12-ship", got)
	}
	if got := TaskFolder(104, "Big plan"); got != "104-big-plan" {
		t.Errorf("TaskFolder = %q, want 104-big-plan", got)
	}
}
