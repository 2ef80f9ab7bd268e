package validate

import (
	"net/url"
	"testing"

	"github.com/prepnest/go-exam-backend/internal/apperr"
)

type createCourseDTO struct {
	Title string  `json:"title" binding:"required,min=3,max=120"`
	Slug  string  `json:"slug"  binding:"required"`
	Price float64 `json:"price" binding:"gte=0"`
}

func TestJSONSchema_ValidPayload(t *testing.T) {
	s := JSON[createCourseDTO]()
	got, err := s.Parse(Source{Body: []byte(`{"title":"SSC CGL Tier I","slug":"ssc-cgl-1","price":499}`)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	dto, ok := got.(*createCourseDTO)
	if !ok {
		t.Fatalf("typed value is %T, want *createCourseDTO", got)
	}
	if dto.Title != "SSC CGL Tier I" || dto.Price != 499 {
		t.Fatalf("decoded value wrong: %+v", dto)
	}
}

// Every failing field must be reported in one pass (property P4).
func TestJSONSchema_ReportsAllFieldFailures(t *testing.T) {
	s := JSON[createCourseDTO]()
	_, err := s.Parse(Source{Body: []byte(`{"title":"ab","price":-5}`)})
	if err == nil {
		t.Fatalf("expected validation error")
	}
	ae := apperr.From(err)
	if ae == nil || ae.Kind != apperr.KindValidation {
		t.Fatalf("expected KindValidation, got %v", err)
	}
	fields, ok := ae.Details.([]apperr.FieldError)
	if !ok {
		t.Fatalf("details type %T", ae.Details)
	}
	if len(fields) != 3 {
		t.Fatalf("expected 3 field errors (title min, slug required, price gte), got %d: %v", len(fields), fields)
	}
	byField := map[string]string{}
	for _, fe := range fields {
		byField[fe.Field] = fe.Code
	}
	if byField["title"] != "min" || byField["slug"] != "required" || byField["price"] != "gte" {
		t.Fatalf("unexpected failures: %v", byField)
	}
}

func TestJSONSchema_MalformedBody(t *testing.T) {
	s := JSON[createCourseDTO]()
	_, err := s.Parse(Source{Body: []byte(`{"title":`)})
	ae := apperr.From(err)
	if ae == nil || ae.Kind != apperr.KindValidation {
		t.Fatalf("expected KindValidation for bad JSON, got %v", err)
	}
	fields := ae.Details.([]apperr.FieldError)
	if len(fields) != 1 || fields[0].Field != "body" || fields[0].Code != "json" {
		t.Fatalf("expected single body/json error, got %v", fields)
	}
}

type listQueryDTO struct {
	Page      int    `form:"page" binding:"omitempty,gte=1"`
	Limit     int    `form:"limit" binding:"omitempty,gte=1,lte=100"`
	SortOrder string `form:"sortOrder" binding:"omitempty,oneof=asc desc"`
	Search    string `form:"search"`
}

func TestFormSchema_QueryMapping(t *testing.T) {
	s := Form[listQueryDTO]()
	got, err := s.Parse(Source{Form: url.Values{
		"page":      {"2"},
		"limit":     {"25"},
		"sortOrder": {"desc"},
		"search":    {"algebra"},
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	q := got.(*listQueryDTO)
	if q.Page != 2 || q.Limit != 25 || q.SortOrder != "desc" || q.Search != "algebra" {
		t.Fatalf("decoded query wrong: %+v", q)
	}
}

func TestFormSchema_TypeCoercionFailure(t *testing.T) {
	s := Form[listQueryDTO]()
	_, err := s.Parse(Source{Form: url.Values{"page": {"two"}}})
	ae := apperr.From(err)
	if ae == nil || ae.Kind != apperr.KindValidation {
		t.Fatalf("expected KindValidation, got %v", err)
	}
	fields := ae.Details.([]apperr.FieldError)
	if len(fields) != 1 || fields[0].Field != "page" || fields[0].Code != "integer" {
		t.Fatalf("expected page/integer error, got %v", fields)
	}
}

func TestFormSchema_RuleFailure(t *testing.T) {
	s := Form[listQueryDTO]()
	_, err := s.Parse(Source{Form: url.Values{"sortOrder": {"sideways"}}})
	ae := apperr.From(err)
	if ae == nil || ae.Kind != apperr.KindValidation {
		t.Fatalf("expected KindValidation, got %v", err)
	}
	fields := ae.Details.([]apperr.FieldError)
	if len(fields) != 1 || fields[0].Field != "sortOrder" || fields[0].Code != "oneof" {
		t.Fatalf("expected sortOrder/oneof, got %v", fields)
	}
}

type paramsDTO struct {
	ID string `form:"id" binding:"required,uuid4"`
}

func TestFormSchema_PathParams(t *testing.T) {
	s := Form[paramsDTO]()

	_, err := s.Parse(Source{Form: url.Values{"id": {"not-a-uuid"}}})
	ae := apperr.From(err)
	if ae == nil || ae.Kind != apperr.KindValidation {
		t.Fatalf("expected KindValidation for bad uuid, got %v", err)
	}

	got, err := s.Parse(Source{Form: url.Values{"id": {"0b9fbd6e-3a3e-4f53-9a1e-0a3a5ec7a111"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.(*paramsDTO).ID == "" {
		t.Fatalf("id not mapped")
	}
}

func TestNilSchemaIsRejected(t *testing.T) {
	var s *Schema
	if _, err := s.Parse(Source{}); err == nil {
		t.Fatalf("expected error from uninitialized schema")
	}
}
