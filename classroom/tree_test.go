package classroom

import (
	"testing"

	courseModels "lms/models/course"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func testModule(id, courseID uint, order int) courseModels.Module {
	return courseModels.Module{Model: gorm.Model{ID: id}, CourseID: courseID, OrderIndex: order}
}

func testSection(id, moduleID uint, order int) courseModels.Section {
	return courseModels.Section{Model: gorm.Model{ID: id}, ModuleID: moduleID, OrderIndex: order}
}

func testLesson(id, sectionID uint, order int, lessonType string) courseModels.Lesson {
	return courseModels.Lesson{
		Model:       gorm.Model{ID: id},
		CourseID:    1,
		SectionID:   sectionID,
		Type:        lessonType,
		OrderIndex:  order,
		IsPublished: true,
	}
}

func flatIDs(tree *Tree) []uint {
	ids := make([]uint, len(tree.FlatLessons))
	for i, l := range tree.FlatLessons {
		ids[i] = l.ID
	}
	return ids
}

func TestNormalize_Ordering(t *testing.T) {
	raw := RawCourse{
		Modules: []courseModels.Module{
			testModule(2, 1, 2),
			testModule(1, 1, 1),
		},
		Sections: []courseModels.Section{
			testSection(20, 2, 1),
			testSection(11, 1, 2),
			testSection(10, 1, 1),
		},
		Lessons: []courseModels.Lesson{
			testLesson(103, 11, 1, courseModels.LessonTypeVideo),
			testLesson(102, 10, 2, courseModels.LessonTypeDocument),
			testLesson(101, 10, 1, courseModels.LessonTypeVideo),
			testLesson(104, 20, 1, courseModels.LessonTypeTask),
		},
	}

	tree, err := Normalize(raw)
	require.NoError(t, err)

	require.Len(t, tree.Modules, 2)
	assert.Equal(t, uint(1), tree.Modules[0].ID)
	assert.Equal(t, uint(2), tree.Modules[1].ID)
	assert.Equal(t, []uint{101, 102, 103, 104}, flatIDs(tree))
}

func TestNormalize_StableTieBreak(t *testing.T) {
	// All order indexes zero: fetch order must win, every time.
	raw := RawCourse{
		Modules:  []courseModels.Module{testModule(1, 1, 0)},
		Sections: []courseModels.Section{testSection(10, 1, 0)},
		Lessons: []courseModels.Lesson{
			testLesson(7, 10, 0, courseModels.LessonTypeVideo),
			testLesson(3, 10, 0, courseModels.LessonTypeVideo),
			testLesson(9, 10, 0, courseModels.LessonTypeVideo),
		},
	}

	first, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, []uint{7, 3, 9}, flatIDs(first))

	second, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, flatIDs(first), flatIDs(second))
}

func TestNormalize_ExcludesUnpublished(t *testing.T) {
	hidden := testLesson(102, 10, 2, courseModels.LessonTypeVideo)
	hidden.IsPublished = false

	raw := RawCourse{
		Modules:  []courseModels.Module{testModule(1, 1, 1)},
		Sections: []courseModels.Section{testSection(10, 1, 1)},
		Lessons: []courseModels.Lesson{
			testLesson(101, 10, 1, courseModels.LessonTypeVideo),
			hidden,
			testLesson(103, 10, 3, courseModels.LessonTypeVideo),
		},
	}

	tree, err := Normalize(raw)
	require.NoError(t, err)

	assert.Equal(t, []uint{101, 103}, flatIDs(tree))
	// Still present in the tree for authoring views.
	assert.Len(t, tree.Modules[0].Sections[0].Lessons, 3)
}

func TestNormalize_EmptyContainers(t *testing.T) {
	raw := RawCourse{
		Modules:  []courseModels.Module{testModule(1, 1, 1), testModule(2, 1, 2)},
		Sections: []courseModels.Section{testSection(10, 1, 1)},
	}

	tree, err := Normalize(raw)
	require.NoError(t, err)

	assert.Len(t, tree.Modules, 2)
	assert.Len(t, tree.Modules[0].Sections, 1)
	assert.Empty(t, tree.Modules[1].Sections)
	assert.Empty(t, tree.FlatLessons)
}

func TestNormalize_DecodesQuiz(t *testing.T) {
	quizLesson := testLesson(101, 10, 1, courseModels.LessonTypeQuiz)
	quizLesson.QuizData = datatypes.JSON(`{"questions":[{"text":"2+2?","options":[{"text":"4","isCorrect":true},{"text":"5","isCorrect":false}]}]}`)

	raw := RawCourse{
		Modules:  []courseModels.Module{testModule(1, 1, 1)},
		Sections: []courseModels.Section{testSection(10, 1, 1)},
		Lessons:  []courseModels.Lesson{quizLesson},
	}

	tree, err := Normalize(raw)
	require.NoError(t, err)

	quiz, ok := tree.Quizzes[101]
	require.True(t, ok)
	require.Len(t, quiz.Questions, 1)
	assert.Equal(t, 0, quiz.Questions[0].CorrectOption())
}

func TestNormalize_RejectsMalformedQuiz(t *testing.T) {
	quizLesson := testLesson(101, 10, 1, courseModels.LessonTypeQuiz)
	quizLesson.QuizData = datatypes.JSON(`{"questions":`)

	raw := RawCourse{
		Modules:  []courseModels.Module{testModule(1, 1, 1)},
		Sections: []courseModels.Section{testSection(10, 1, 1)},
		Lessons:  []courseModels.Lesson{quizLesson},
	}

	_, err := Normalize(raw)
	assert.Error(t, err)
}

func TestNormalize_RejectsQuizWithoutData(t *testing.T) {
	raw := RawCourse{
		Modules:  []courseModels.Module{testModule(1, 1, 1)},
		Sections: []courseModels.Section{testSection(10, 1, 1)},
		Lessons:  []courseModels.Lesson{testLesson(101, 10, 1, courseModels.LessonTypeQuiz)},
	}

	_, err := Normalize(raw)
	assert.Error(t, err)
}

func TestNormalize_RejectsUnknownLessonType(t *testing.T) {
	raw := RawCourse{
		Modules:  []courseModels.Module{testModule(1, 1, 1)},
		Sections: []courseModels.Section{testSection(10, 1, 1)},
		Lessons:  []courseModels.Lesson{testLesson(101, 10, 1, "HOLOGRAM")},
	}

	_, err := Normalize(raw)
	assert.Error(t, err)
}

func TestTree_Navigation(t *testing.T) {
	raw := RawCourse{
		Modules:  []courseModels.Module{testModule(1, 1, 1)},
		Sections: []courseModels.Section{testSection(10, 1, 1)},
		Lessons: []courseModels.Lesson{
			testLesson(101, 10, 1, courseModels.LessonTypeVideo),
			testLesson(102, 10, 2, courseModels.LessonTypeVideo),
			testLesson(103, 10, 3, courseModels.LessonTypeVideo),
		},
	}
	tree, err := Normalize(raw)
	require.NoError(t, err)

	next, ok := tree.NextLesson(101)
	require.True(t, ok)
	assert.Equal(t, uint(102), next.ID)

	prev, ok := tree.PrevLesson(102)
	require.True(t, ok)
	assert.Equal(t, uint(101), prev.ID)

	_, ok = tree.PrevLesson(101)
	assert.False(t, ok)
	_, ok = tree.NextLesson(103)
	assert.False(t, ok)

	_, ok = tree.FindLesson(999)
	assert.False(t, ok)
}
