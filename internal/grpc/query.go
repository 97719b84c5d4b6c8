package grpc

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/simdigmanuda/pdp.sim/internal/operations"
	"github.com/simdigmanuda/pdp.sim/internal/report"
)

type Reader interface {
	operations.ScheduleReader
	operations.LabelReader
}

type ComplianceServer struct {
	reader Reader
	loc    *time.Location
	now    func() time.Time
}

func NewComplianceServer(reader Reader, loc *time.Location) *ComplianceServer {
	if loc == nil {
		loc = time.UTC
	}
	return &ComplianceServer{reader: reader, loc: loc, now: time.Now}
}

// ClassifyDay classifies every submission of {"date": "YYYY-MM-DD"}, today
// when the date is omitted.
func (s *ComplianceServer) ClassifyDay(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	date, err := s.dateField(req)
	if err != nil {
		return nil, err
	}
	labels, err := operations.LoadLabels(ctx, s.reader)
	if err != nil {
		return nil, status.Error(codes.Internal, "labels lookup failed")
	}
	days, err := operations.LoadDays(ctx, s.reader, date, date, s.loc, operations.Scope{})
	if err != nil {
		return nil, status.Error(codes.Internal, "schedule lookup failed")
	}
	results := report.Classify(days)
	matched := 0
	for _, res := range results {
		if res.Matched {
			matched++
		}
	}
	rows, err := toList(report.AggregateResults(results, labels, s.loc))
	if err != nil {
		return nil, status.Error(codes.Internal, "encode failed")
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"date":      structpb.NewStringValue(date.Format("2006-01-02")),
		"matched":   structpb.NewNumberValue(float64(matched)),
		"unmatched": structpb.NewNumberValue(float64(len(results) - matched)),
		"rows":      structpb.NewListValue(rows),
	}}, nil
}

// TeacherStatus lists the scheduled groups of {"teacherId": n} on the given
// date with their realtime status.
func (s *ComplianceServer) TeacherStatus(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	teacherID := int64(req.GetFields()["teacherId"].GetNumberValue())
	if teacherID <= 0 {
		return nil, status.Error(codes.InvalidArgument, "teacherId required")
	}
	date, err := s.dateField(req)
	if err != nil {
		return nil, err
	}
	labels, err := operations.LoadLabels(ctx, s.reader)
	if err != nil {
		return nil, status.Error(codes.Internal, "labels lookup failed")
	}
	days, err := operations.LoadDays(ctx, s.reader, date, date, s.loc, operations.Scope{TeacherID: teacherID})
	if err != nil {
		return nil, status.Error(codes.Internal, "schedule lookup failed")
	}
	var rows []report.RealtimeRow
	for _, day := range days {
		for _, row := range report.Realtime(day.Groups, day.Submissions, labels) {
			if row.TeacherID == teacherID {
				rows = append(rows, row)
			}
		}
	}
	report.Number(rows, 0)
	list, err := toList(rows)
	if err != nil {
		return nil, status.Error(codes.Internal, "encode failed")
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"date":      structpb.NewStringValue(date.Format("2006-01-02")),
		"teacherId": structpb.NewNumberValue(float64(teacherID)),
		"teacher":   structpb.NewStringValue(labels.Teacher(teacherID)),
		"rows":      structpb.NewListValue(list),
	}}, nil
}

func (s *ComplianceServer) dateField(req *structpb.Struct) (time.Time, error) {
	raw := strings.TrimSpace(req.GetFields()["date"].GetStringValue())
	if raw == "" {
		return report.DateOf(s.now().In(s.loc)), nil
	}
	date, err := time.ParseInLocation("2006-01-02", raw, s.loc)
	if err != nil {
		return time.Time{}, status.Error(codes.InvalidArgument, "invalid date")
	}
	return date, nil
}

// toList round-trips rows through JSON so the struct fields keep their
// json names.
func toList(rows interface{}) (*structpb.ListValue, error) {
	data, err := json.Marshal(rows)
	if err != nil {
		return nil, err
	}
	var items []interface{}
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	return structpb.NewList(items)
}
