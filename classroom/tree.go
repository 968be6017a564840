package classroom

import (
	"encoding/json"
	"fmt"
	"sort"

	courseModels "lms/models/course"
)

// RawCourse is the hierarchy exactly as fetched from the store, each level
// in fetch order. Order indexes may be zero or non-contiguous.
type RawCourse struct {
	Course   courseModels.Course
	Modules  []courseModels.Module
	Sections []courseModels.Section
	Lessons  []courseModels.Lesson
}

// SectionNode is a section with its ordered lessons.
type SectionNode struct {
	courseModels.Section
	Lessons []courseModels.Lesson
}

// ModuleNode is a module with its ordered sections.
type ModuleNode struct {
	courseModels.Module
	Sections []SectionNode
}

// Tree is the normalized, deterministically ordered content tree for one
// course snapshot. FlatLessons is the learner-facing sequence: lessons in
// traversal order with unpublished ones excluded; it defines "lesson N"
// and next/previous semantics.
type Tree struct {
	Course      courseModels.Course
	Modules     []ModuleNode
	FlatLessons []courseModels.Lesson
	Quizzes     map[uint]QuizDefinition
}

// Normalize builds the ordered tree and flattened lesson sequence from a
// raw snapshot. Sorting is stable at every level: equal order indexes keep
// their fetch order, so the same input always yields the same sequence.
// Lesson records are validated here so nothing downstream has to branch on
// raw storage fields.
func Normalize(raw RawCourse) (*Tree, error) {
	tree := &Tree{
		Course:  raw.Course,
		Quizzes: make(map[uint]QuizDefinition),
	}

	sectionsByModule := make(map[uint][]courseModels.Section)
	for _, sec := range raw.Sections {
		sectionsByModule[sec.ModuleID] = append(sectionsByModule[sec.ModuleID], sec)
	}
	lessonsBySection := make(map[uint][]courseModels.Lesson)
	for _, l := range raw.Lessons {
		if !l.ValidType() {
			return nil, fmt.Errorf("lesson %d has unknown type %q", l.ID, l.Type)
		}
		lessonsBySection[l.SectionID] = append(lessonsBySection[l.SectionID], l)
	}

	modules := make([]courseModels.Module, len(raw.Modules))
	copy(modules, raw.Modules)
	sort.SliceStable(modules, func(i, j int) bool {
		return modules[i].OrderIndex < modules[j].OrderIndex
	})

	for _, mod := range modules {
		node := ModuleNode{Module: mod}
		sections := sectionsByModule[mod.ID]
		sort.SliceStable(sections, func(i, j int) bool {
			return sections[i].OrderIndex < sections[j].OrderIndex
		})
		for _, sec := range sections {
			lessons := lessonsBySection[sec.ID]
			sort.SliceStable(lessons, func(i, j int) bool {
				return lessons[i].OrderIndex < lessons[j].OrderIndex
			})
			secNode := SectionNode{Section: sec, Lessons: lessons}
			for _, l := range lessons {
				if l.IsQuiz() {
					quiz, err := decodeQuiz(l)
					if err != nil {
						return nil, err
					}
					tree.Quizzes[l.ID] = quiz
				}
				if l.IsPublished {
					tree.FlatLessons = append(tree.FlatLessons, l)
				}
			}
			node.Sections = append(node.Sections, secNode)
		}
		tree.Modules = append(tree.Modules, node)
	}

	return tree, nil
}

func decodeQuiz(l courseModels.Lesson) (QuizDefinition, error) {
	var quiz QuizDefinition
	if len(l.QuizData) == 0 {
		return quiz, fmt.Errorf("quiz lesson %d has no quiz data", l.ID)
	}
	if err := json.Unmarshal(l.QuizData, &quiz); err != nil {
		return quiz, fmt.Errorf("quiz lesson %d: decode quiz data: %w", l.ID, err)
	}
	return quiz, nil
}

// FindLesson looks up a lesson in the learner-facing sequence.
func (t *Tree) FindLesson(lessonID uint) (courseModels.Lesson, bool) {
	for _, l := range t.FlatLessons {
		if l.ID == lessonID {
			return l, true
		}
	}
	return courseModels.Lesson{}, false
}

// NextLesson returns the lesson after the given one in traversal order.
func (t *Tree) NextLesson(lessonID uint) (courseModels.Lesson, bool) {
	for i, l := range t.FlatLessons {
		if l.ID == lessonID && i+1 < len(t.FlatLessons) {
			return t.FlatLessons[i+1], true
		}
	}
	return courseModels.Lesson{}, false
}

// PrevLesson returns the lesson before the given one in traversal order.
func (t *Tree) PrevLesson(lessonID uint) (courseModels.Lesson, bool) {
	for i, l := range t.FlatLessons {
		if l.ID == lessonID && i > 0 {
			return t.FlatLessons[i-1], true
		}
	}
	return courseModels.Lesson{}, false
}

// ModuleLessons returns the learner-facing lessons belonging to one
// module's sections, in traversal order.
func (t *Tree) ModuleLessons(moduleID uint) []courseModels.Lesson {
	var out []courseModels.Lesson
	for _, mod := range t.Modules {
		if mod.ID != moduleID {
			continue
		}
		for _, sec := range mod.Sections {
			for _, l := range sec.Lessons {
				if l.IsPublished {
					out = append(out, l)
				}
			}
		}
	}
	return out
}
