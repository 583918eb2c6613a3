//go:build cloudintegration

package s3_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3leaps/fsdv/pkg/document"
	"github.com/3leaps/fsdv/pkg/schema"
	"github.com/3leaps/fsdv/pkg/source"
	fsdvs3 "github.com/3leaps/fsdv/pkg/source/s3"
	"github.com/3leaps/fsdv/pkg/validator"
	"github.com/3leaps/fsdv/test/cloudtest"
)

func TestReader_Moto(t *testing.T) {
	cloudtest.SkipIfUnavailable(t)
	ctx := context.Background()

	bucket := cloudtest.CreateBucket(t, ctx)
	cloudtest.PutDocuments(t, ctx, bucket, map[string]string{
		"configs/app.json": `{"name": "svc", "replicas": 3}`,
		"configs/bad.yaml": "name: svc\nreplicas: many\n",
	})

	r, err := fsdvs3.New(ctx, cloudtest.ReaderConfig(bucket))
	require.NoError(t, err)
	require.NoError(t, r.Check(ctx))

	router := source.NewRouter(source.DefaultMaxBytes, fsdvs3.Factory(cloudtest.ReaderConfig("")))
	v := validator.New(validator.WithReader(router))
	s := schema.Object(
		schema.Required("name", schema.Scalar(schema.TypeString)),
		schema.Required("replicas", schema.Scalar(schema.TypeInteger)),
	)

	t.Run("valid object", func(t *testing.T) {
		rep, err := v.Validate(ctx, "s3://"+bucket+"/configs/app.json", document.FormatAuto, s)
		require.NoError(t, err)
		assert.True(t, rep.Valid())
	})

	t.Run("violations carry positions", func(t *testing.T) {
		rep, err := v.Validate(ctx, "s3://"+bucket+"/configs/bad.yaml", document.FormatAuto, s)
		require.NoError(t, err)
		require.Len(t, rep.Violations, 1)
		assert.Equal(t, validator.TypeMismatch, rep.Violations[0].Kind)
		assert.Equal(t, 2, rep.Violations[0].Line)
	})

	t.Run("missing key", func(t *testing.T) {
		_, err := v.Validate(ctx, "s3://"+bucket+"/configs/absent.json", document.FormatAuto, s)
		require.Error(t, err)
		assert.ErrorIs(t, err, source.ErrNotFound)
		assert.ErrorIs(t, err, validator.ErrIO)
	})

	t.Run("missing bucket", func(t *testing.T) {
		missing, err := fsdvs3.New(ctx, cloudtest.ReaderConfig(bucket+"-absent"))
		require.NoError(t, err)
		err = missing.Check(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, source.ErrBucketNotFound)
	})
}
