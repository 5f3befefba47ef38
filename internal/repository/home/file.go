package home

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/lost-item-tracker/internal/domain/geo"
)

const fieldUsers = "users"

// FileRepository persists user documents to a single JSON file.
// The file holds a protobuf Struct encoded with protojson:
//
//	{"users": {"<uid>": {"homeLocation": {"lat": 10, "lng": 76}, ...}}}
type FileRepository struct {
	// path is the filesystem location of the JSON file.
	path string
	// mu serializes read-modify-write cycles on the file.
	mu sync.Mutex
}

// NewFileRepository creates a repository that reads/writes JSON at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Load reads the home of the user from disk.
func (r *FileRepository) Load(_ context.Context, userID string) (geo.Coordinate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	root, err := r.read()
	if err != nil {
		return geo.Coordinate{}, err
	}

	user := root.GetFields()[fieldUsers].GetStructValue().GetFields()[userID].GetStructValue()

	home := user.GetFields()[fieldHomeLocation].GetStructValue()
	if home == nil {
		return geo.Coordinate{}, ErrNotFound
	}

	lat, latOK := number(home, fieldLatitude)
	lng, lngOK := number(home, fieldLongitude)

	if !latOK || !lngOK {
		return geo.Coordinate{}, fmt.Errorf("user %q: %w", userID, ErrCorrupted)
	}

	return decode(lat, lng)
}

// Save merges the home location into the user document.
func (r *FileRepository) Save(_ context.Context, userID string, home geo.Coordinate) error {
	return r.update(userID, func(user *structpb.Struct) {
		user.Fields[fieldHomeLocation] = structpb.NewStructValue(&structpb.Struct{
			Fields: map[string]*structpb.Value{
				fieldLatitude:  structpb.NewNumberValue(home.Latitude),
				fieldLongitude: structpb.NewNumberValue(home.Longitude),
			},
		})
		user.Fields[fieldUpdatedAt] = structpb.NewStringValue(time.Now().UTC().Format(time.RFC3339))
	})
}

// Clear removes the home location from the user document.
func (r *FileRepository) Clear(_ context.Context, userID string) error {
	return r.update(userID, func(user *structpb.Struct) {
		delete(user.Fields, fieldHomeLocation)
		delete(user.Fields, fieldUpdatedAt)
	})
}

// Close is a no-op for the file repository.
func (r *FileRepository) Close() error {
	return nil
}

// update runs a read-modify-write cycle on one user document.
func (r *FileRepository) update(userID string, mutate func(user *structpb.Struct)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	root, err := r.read()
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	if root == nil {
		root = new(structpb.Struct)
	}

	users := child(root, fieldUsers)
	user := child(users, userID)

	mutate(user)

	return r.write(root)
}

// read decodes the whole file. A missing file yields ErrNotFound and an empty root.
func (r *FileRepository) read() (*structpb.Struct, error) {
	contents, err := os.ReadFile(r.path)

	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist):
		return new(structpb.Struct), ErrNotFound
	case errors.Is(err, os.ErrPermission):
		return nil, errors.Join(ErrUnavailable, err)
	default:
		return nil, fmt.Errorf("read users file: %w", err)
	}

	root := new(structpb.Struct)
	if len(contents) == 0 {
		return root, nil
	}

	if err = protojson.Unmarshal(contents, root); err != nil {
		return nil, fmt.Errorf("decode users file: %w", errors.Join(ErrCorrupted, err))
	}

	return root, nil
}

// write replaces the file atomically through a temporary sibling.
func (r *FileRepository) write(root *structpb.Struct) error {
	marshalOptions := protojson.MarshalOptions{
		Multiline: true,
		Indent:    "  ",
	}

	data, err := marshalOptions.Marshal(root)
	if err != nil {
		return fmt.Errorf("encode users file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), filepath.Base(r.path)+".*.tmp")
	if err != nil {
		if errors.Is(err, os.ErrPermission) || errors.Is(err, os.ErrNotExist) {
			return errors.Join(ErrUnavailable, err)
		}

		return fmt.Errorf("create temp users file: %w", err)
	}

	tmpName := tmp.Name()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)

		return fmt.Errorf("write users file: %w", err)
	}

	if err = tmp.Close(); err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("close users file: %w", err)
	}

	if err = os.Rename(tmpName, r.path); err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("replace users file: %w", err)
	}

	return nil
}

// child returns the nested struct stored under key, creating it when absent.
func child(parent *structpb.Struct, key string) *structpb.Struct {
	if parent.Fields == nil {
		parent.Fields = make(map[string]*structpb.Value)
	}

	if existing := parent.Fields[key].GetStructValue(); existing != nil {
		if existing.Fields == nil {
			existing.Fields = make(map[string]*structpb.Value)
		}

		return existing
	}

	created := &structpb.Struct{Fields: make(map[string]*structpb.Value)}
	parent.Fields[key] = structpb.NewStructValue(created)

	return created
}

func number(s *structpb.Struct, key string) (float64, bool) {
	v, ok := s.GetFields()[key].GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, false
	}

	return v.NumberValue, true
}
