package app

import (
	"errors"
	"testing"

	"github.com/madbrain/recette-lsp/src/rlsp/internal/fs"
	"github.com/madbrain/recette-lsp/src/rlsp/internal/fs/fsmock"
	"github.com/stretchr/testify/assert"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/mock/gomock"
)

func loggingConfig(t *testing.T, outputPaths ...string) config.Provider {
	p, err := config.NewStaticProvider(map[string]interface{}{
		"logging": map[string]interface{}{
			"outputPaths": outputPaths,
		},
	})
	assert.NoError(t, err)
	return p
}

func TestDecorateConfigProvider(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Run("no errors", func(t *testing.T) {
		fsMock := fsmock.NewMockRlspFS(ctrl)
		fsMock.EXPECT().MkdirAll("/tmp/foo").Return(nil)

		fxtest.New(
			t,
			fx.Provide(func() fs.RlspFS {
				return fsMock
			}),
			fx.Provide(func() config.Provider {
				return loggingConfig(t, "/tmp/foo/myfile1.log")
			}),
			fx.Decorate(decorateConfigProvider),
			fx.Invoke(func(cfg config.Provider) {
			}),
		).RequireStart().RequireStop()
	})

	t.Run("error creating directory", func(t *testing.T) {
		fsMock := fsmock.NewMockRlspFS(ctrl)
		fsMock.EXPECT().MkdirAll("/tmp/foo").Return(errors.New("error creating directory"))

		_, err := decorateConfigProvider(DecorateConfigParams{
			Cfg: loggingConfig(t, "/tmp/foo/myfile1.log"),
			FS:  fsMock,
		})
		assert.ErrorContains(t, err, "ensuring log folder")
	})
}

func TestEnsureLogFolder(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Run("no errors", func(t *testing.T) {
		fsMock := fsmock.NewMockRlspFS(ctrl)

		fsMock.EXPECT().MkdirAll("/tmp/foo").Return(nil)
		fsMock.EXPECT().MkdirAll("/tmp/bar").Return(nil)

		fxtest.New(
			t,
			fx.Provide(func() fs.RlspFS {
				return fsMock
			}),
			fx.Provide(func() config.Provider {
				return loggingConfig(t, "/tmp/foo/myfile1.log", "/tmp/bar/myfile2.log")
			}),
			fx.Decorate(ensureLogFolder),
			fx.Invoke(func(cfg config.Provider) {
			}),
		).RequireStart().RequireStop()
	})

	t.Run("process streams are skipped", func(t *testing.T) {
		fsMock := fsmock.NewMockRlspFS(ctrl)
		fsMock.EXPECT().MkdirAll("/tmp/foo").Return(nil)

		cfg := loggingConfig(t, "stderr", "stdout", "/tmp/foo/rlsp.log")
		got, err := ensureLogFolder(cfg, fsMock)
		assert.NoError(t, err)
		assert.Equal(t, cfg, got)
	})

	t.Run("error creating directory", func(t *testing.T) {
		fsMock := fsmock.NewMockRlspFS(ctrl)
		fsMock.EXPECT().MkdirAll("/tmp/foo").Return(errors.New("error creating directory"))

		_, err := ensureLogFolder(loggingConfig(t, "/tmp/foo/myfile1.log", "/tmp/bar/myfile2.log"), fsMock)
		assert.Error(t, err)
	})

	t.Run("malformed logging config", func(t *testing.T) {
		fsMock := fsmock.NewMockRlspFS(ctrl)
		p, err := config.NewStaticProvider(map[string]interface{}{
			"logging": map[string]interface{}{
				"outputPaths": map[string]string{"not": "a list"},
			},
		})
		assert.NoError(t, err)

		_, err = ensureLogFolder(p, fsMock)
		assert.Error(t, err)
	})
}
