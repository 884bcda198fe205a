package service

import (
	"regexp"
	"strings"

	"github.com/noah-isme/wset-admin-api/internal/models"
)

// CourseExtractor recovers course metadata from an inbound order. It returns false when the order
// carries nothing recognisable as a course enrollment.
type CourseExtractor interface {
	Extract(order models.Order) (*models.CourseInfo, bool)
}

// CourseExtractorFunc adapts a plain function.
type CourseExtractorFunc func(order models.Order) (*models.CourseInfo, bool)

// Extract implements CourseExtractor.
func (f CourseExtractorFunc) Extract(order models.Order) (*models.CourseInfo, bool) {
	return f(order)
}

var (
	courseMarker = regexp.MustCompile(`\b(wset|level|award|diploma|course|exam|l[1-4])\b`)
	level4Marker = regexp.MustCompile(`\b(level\s*4|l4|diploma)\b`)
	level3Marker = regexp.MustCompile(`\b(level\s*3|l3)\b`)
	level2Marker = regexp.MustCompile(`\b(level\s*2|l2)\b`)
	remoteMarker = regexp.MustCompile(`\b(online|remote|ri)\b`)
	inPersonMark = regexp.MustCompile(`\b(pdf|in[\s-]?person|classroom|paper)\b`)
)

// HeuristicCourseExtractor infers level and modality from product names. It is best-effort:
// short markers such as "l2" or "ri" are matched on word boundaries only.
type HeuristicCourseExtractor struct{}

// NewHeuristicCourseExtractor constructs the default extractor.
func NewHeuristicCourseExtractor() *HeuristicCourseExtractor {
	return &HeuristicCourseExtractor{}
}

// Extract implements CourseExtractor.
func (e *HeuristicCourseExtractor) Extract(order models.Order) (*models.CourseInfo, bool) {
	for _, item := range order.LineItems {
		name := strings.TrimSpace(item.ProductName)
		text := strings.ToLower(name)
		if !courseMarker.MatchString(text) {
			continue
		}
		info := &models.CourseInfo{
			CourseType: name,
			Level:      detectLevel(text),
			ExamType:   models.ExamTypePDF,
		}
		if remoteMarker.MatchString(text) {
			info.ExamType = models.ExamTypeRI
		}
		if order.Form != nil && order.Form.CourseType != nil {
			if override, ok := modalityFromText(*order.Form.CourseType); ok {
				info.ExamType = override
			}
		}
		return info, true
	}
	return nil, false
}

func detectLevel(text string) int {
	switch {
	case level4Marker.MatchString(text):
		return 4
	case level3Marker.MatchString(text):
		return 3
	case level2Marker.MatchString(text):
		return 2
	default:
		return 1
	}
}

func modalityFromText(raw string) (models.ExamType, bool) {
	text := strings.ToLower(strings.TrimSpace(raw))
	if text == "" {
		return "", false
	}
	if t, ok := models.ParseExamType(text); ok {
		return t, true
	}
	switch {
	case remoteMarker.MatchString(text):
		return models.ExamTypeRI, true
	case inPersonMark.MatchString(text):
		return models.ExamTypePDF, true
	default:
		return "", false
	}
}
