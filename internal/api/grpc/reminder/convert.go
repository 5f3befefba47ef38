package reminder

import (
	"errors"
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/lost-item-tracker/internal/domain/geo"
	"github.com/oshokin/lost-item-tracker/internal/service/engine"
	"github.com/oshokin/lost-item-tracker/internal/service/position"
)

// Document field names.
const (
	fieldUserID       = "userId"
	fieldState        = "state"
	fieldHome         = "homeLocation"
	fieldLoading      = "loading"
	fieldCurrentFix   = "currentFix"
	fieldDistance     = "distanceMeters"
	fieldLastError    = "lastError"
	fieldWatching     = "watching"
	fieldEpisodes     = "episodes"
	fieldHighAccuracy = "highAccuracy"
	fieldPermission   = "permission"
	fieldDeparture    = "departureThresholdMeters"
	fieldReturn       = "returnThresholdMeters"
	fieldLat          = "lat"
	fieldLng          = "lng"
	fieldAccuracy     = "accuracy"
	fieldTimestamp    = "timestamp"
	fieldError        = "error"
	fieldFromCurrent  = "fromCurrent"
)

var (
	errFieldType   = errors.New("unexpected field type")
	errFieldAbsent = errors.New("field is required")
)

// StatusView is the decoded status document.
type StatusView struct {
	UserID     string
	State      string
	Home       *geo.Coordinate
	Loading    bool
	CurrentFix *geo.Coordinate
	Accuracy   float64
	Distance   *float64
	LastError  string
	Watching   bool
	// HighAccuracy is the accuracy mode of the device watch.
	HighAccuracy bool
	Episodes     int
	Permission   string
	Departure    float64
	Return       float64
}

// ToStatusStruct encodes an engine snapshot.
func ToStatusStruct(s engine.Status) *structpb.Struct {
	fields := map[string]*structpb.Value{
		fieldUserID:       structpb.NewStringValue(s.UserID),
		fieldState:        structpb.NewStringValue(s.State.String()),
		fieldLoading:      structpb.NewBoolValue(s.Loading),
		fieldWatching:     structpb.NewBoolValue(s.Watching),
		fieldHighAccuracy: structpb.NewBoolValue(s.HighAccuracy),
		fieldEpisodes:     structpb.NewNumberValue(float64(s.Episodes)),
		fieldPermission:   structpb.NewStringValue(s.Permission.String()),
		fieldDeparture:    structpb.NewNumberValue(s.Thresholds.Departure),
		fieldReturn:       structpb.NewNumberValue(s.Thresholds.Return),
	}

	if s.HasHome {
		fields[fieldHome] = structpb.NewStructValue(coordinateStruct(s.Home))
	}

	if s.HasFix {
		fix := coordinateStruct(s.CurrentFix.Coordinate)
		fix.Fields[fieldAccuracy] = structpb.NewNumberValue(s.CurrentFix.Accuracy)
		fix.Fields[fieldTimestamp] = structpb.NewStringValue(s.CurrentFix.Timestamp.UTC().Format(time.RFC3339Nano))
		fields[fieldCurrentFix] = structpb.NewStructValue(fix)
	}

	if s.HasDistance {
		fields[fieldDistance] = structpb.NewNumberValue(s.LastDistance)
	}

	if s.LastError != nil {
		fields[fieldLastError] = structpb.NewStringValue(s.LastError.Error())
	}

	return &structpb.Struct{Fields: fields}
}

// FromStatusStruct decodes a status document.
func FromStatusStruct(doc *structpb.Struct) (*StatusView, error) {
	if doc == nil {
		return nil, fmt.Errorf("status: %w", errFieldAbsent)
	}

	fields := doc.GetFields()
	view := &StatusView{
		UserID:       fields[fieldUserID].GetStringValue(),
		State:        fields[fieldState].GetStringValue(),
		Loading:      fields[fieldLoading].GetBoolValue(),
		LastError:    fields[fieldLastError].GetStringValue(),
		Watching:     fields[fieldWatching].GetBoolValue(),
		HighAccuracy: fields[fieldHighAccuracy].GetBoolValue(),
		Episodes:     int(fields[fieldEpisodes].GetNumberValue()),
		Permission:   fields[fieldPermission].GetStringValue(),
		Departure:    fields[fieldDeparture].GetNumberValue(),
		Return:       fields[fieldReturn].GetNumberValue(),
	}

	if home := fields[fieldHome].GetStructValue(); home != nil {
		c, err := coordinateFrom(home)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fieldHome, err)
		}

		view.Home = &c
	}

	if fix := fields[fieldCurrentFix].GetStructValue(); fix != nil {
		c, err := coordinateFrom(fix)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fieldCurrentFix, err)
		}

		view.CurrentFix = &c
		view.Accuracy = fix.GetFields()[fieldAccuracy].GetNumberValue()
	}

	if v, ok := fields[fieldDistance]; ok {
		d := v.GetNumberValue()
		view.Distance = &d
	}

	return view, nil
}

// SaveHomeRequest builds a SaveHome request for an explicit coordinate.
func SaveHomeRequest(c geo.Coordinate) *structpb.Struct {
	return coordinateStruct(c)
}

// SaveCurrentHomeRequest builds a SaveHome request that uses the current fix.
func SaveCurrentHomeRequest() *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldFromCurrent: structpb.NewBoolValue(true),
	}}
}

// HomeFromResponse extracts the saved home of a SaveHome response.
func HomeFromResponse(doc *structpb.Struct) (geo.Coordinate, error) {
	home := doc.GetFields()[fieldHome].GetStructValue()
	if home == nil {
		return geo.Coordinate{}, fmt.Errorf("%s: %w", fieldHome, errFieldAbsent)
	}

	return coordinateFrom(home)
}

// ReportFixRequest builds a ReportFix request. A failed sample carries only
// the failure name.
func ReportFixRequest(userID string, sample position.Sample, failure string) *structpb.Struct {
	fields := map[string]*structpb.Value{
		fieldUserID: structpb.NewStringValue(userID),
	}

	if failure != "" {
		fields[fieldError] = structpb.NewStringValue(failure)

		return &structpb.Struct{Fields: fields}
	}

	fields[fieldLat] = structpb.NewNumberValue(sample.Latitude)
	fields[fieldLng] = structpb.NewNumberValue(sample.Longitude)

	if sample.Accuracy != nil {
		fields[fieldAccuracy] = structpb.NewNumberValue(*sample.Accuracy)
	}

	if !sample.Timestamp.IsZero() {
		fields[fieldTimestamp] = structpb.NewStringValue(sample.Timestamp.UTC().Format(time.RFC3339Nano))
	}

	return &structpb.Struct{Fields: fields}
}

// parseReportFix decodes a ReportFix request into the user and sample.
func parseReportFix(doc *structpb.Struct) (string, position.Sample, error) {
	fields := doc.GetFields()

	userID, err := stringField(fields, fieldUserID)
	if err != nil {
		return "", position.Sample{}, err
	}

	if name, ok := fields[fieldError]; ok {
		failure, known := position.FailureByName(name.GetStringValue())
		if !known {
			return "", position.Sample{}, fmt.Errorf("%s: unknown failure %q", fieldError, name.GetStringValue())
		}

		return userID, position.Sample{Err: failure}, nil
	}

	lat, err := numberField(fields, fieldLat)
	if err != nil {
		return "", position.Sample{}, err
	}

	lng, err := numberField(fields, fieldLng)
	if err != nil {
		return "", position.Sample{}, err
	}

	sample := position.Sample{
		Latitude:  lat,
		Longitude: lng,
	}

	if _, ok := fields[fieldAccuracy]; ok {
		accuracy, accErr := numberField(fields, fieldAccuracy)
		if accErr != nil {
			return "", position.Sample{}, accErr
		}

		sample.Accuracy = &accuracy
	}

	if _, ok := fields[fieldTimestamp]; ok {
		raw, tsErr := stringField(fields, fieldTimestamp)
		if tsErr != nil {
			return "", position.Sample{}, tsErr
		}

		sample.Timestamp, err = time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return "", position.Sample{}, fmt.Errorf("%s: %w", fieldTimestamp, err)
		}
	}

	return userID, sample, nil
}

func coordinateStruct(c geo.Coordinate) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldLat: structpb.NewNumberValue(c.Latitude),
		fieldLng: structpb.NewNumberValue(c.Longitude),
	}}
}

func coordinateFrom(doc *structpb.Struct) (geo.Coordinate, error) {
	lat, err := numberField(doc.GetFields(), fieldLat)
	if err != nil {
		return geo.Coordinate{}, err
	}

	lng, err := numberField(doc.GetFields(), fieldLng)
	if err != nil {
		return geo.Coordinate{}, err
	}

	return geo.NewCoordinate(lat, lng)
}

func numberField(fields map[string]*structpb.Value, key string) (float64, error) {
	v, ok := fields[key]
	if !ok {
		return 0, fmt.Errorf("%s: %w", key, errFieldAbsent)
	}

	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, fmt.Errorf("%s: %w", key, errFieldType)
	}

	return n.NumberValue, nil
}

func stringField(fields map[string]*structpb.Value, key string) (string, error) {
	v, ok := fields[key]
	if !ok {
		return "", fmt.Errorf("%s: %w", key, errFieldAbsent)
	}

	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", fmt.Errorf("%s: %w", key, errFieldType)
	}

	if s.StringValue == "" {
		return "", fmt.Errorf("%s: %w", key, errFieldAbsent)
	}

	return s.StringValue, nil
}
