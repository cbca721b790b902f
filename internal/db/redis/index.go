package redis

import (
	"context"
	"errors"
	"strconv"

	"github.com/kailas-cloud/jobmatch/internal/db"
)

// EnsureIndex creates the FT index if it does not exist yet.
func (s *Store) EnsureIndex(ctx context.Context, def *db.IndexDefinition) error {
	args, err := buildCreateArgs(def)
	if err != nil {
		return err
	}

	cmd := s.b().Arbitrary("FT.CREATE").Args(args...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "index already exists") {
			return nil
		}
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}
	return nil
}

// IndexExists probes index existence via FT.INFO; "unknown index name" means absent.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	cmd := s.b().Arbitrary("FT.INFO").Args(name).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "unknown index name") || isRedisErr(err, "no such index") {
			return false, nil
		}
		return false, &db.Error{Op: db.OpIndexInfo, Err: err}
	}
	return true, nil
}

func buildCreateArgs(def *db.IndexDefinition) ([]string, error) {
	if def.Name == "" {
		return nil, errors.New("index name is required")
	}
	if def.VectorField == "" {
		return nil, errors.New("vector field is required")
	}
	if def.Dimensions <= 0 {
		return nil, errors.New("dimensions must be positive")
	}

	args := []string{def.Name, "ON", "HASH"}

	if def.Prefix != "" {
		args = append(args, "PREFIX", "1", def.Prefix)
	}

	args = append(args, "SCHEMA")

	args = append(args,
		def.VectorField, "AS", "vector",
		"VECTOR", "FLAT", "6",
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(def.Dimensions),
		"DISTANCE_METRIC", "COSINE",
	)

	for _, tag := range def.TagFields {
		args = append(args, tag, "TAG")
	}

	return args, nil
}
