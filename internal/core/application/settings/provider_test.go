package settings_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fooddelivery/internal/core/application/settings"
	"fooddelivery/internal/core/domain/model/automation"
	"fooddelivery/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepository struct {
	latest automation.Settings
	err    error
}

func (r stubRepository) Latest(context.Context) (automation.Settings, error) {
	return r.latest, r.err
}

func (r stubRepository) Save(context.Context, automation.Settings, int64) (automation.Settings, error) {
	return automation.Settings{}, errors.New("not used")
}

func TestProvider(t *testing.T) {
	t.Run("should start with the fallback", func(t *testing.T) {
		p, err := settings.NewProvider(automation.DefaultSettings())

		require.NoError(t, err)
		assert.Equal(t, automation.DefaultSettings(), p.Current())
	})

	t.Run("should reject an invalid fallback", func(t *testing.T) {
		bad := automation.DefaultSettings()
		bad.DeliveryTimeout = 0

		_, err := settings.NewProvider(bad)

		require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
	})

	t.Run("should swap the whole value and notify subscribers", func(t *testing.T) {
		// Given
		p, err := settings.NewProvider(automation.DefaultSettings())
		require.NoError(t, err)
		var got []automation.Settings
		p.Subscribe(func(s automation.Settings) { got = append(got, s) })
		next := automation.DefaultSettings()
		next.PreparingToReady = 20 * time.Minute
		next.Version = 1

		// When
		err = p.Replace(next)

		// Then
		require.NoError(t, err)
		assert.Equal(t, next, p.Current())
		assert.Equal(t, []automation.Settings{next}, got)
	})

	t.Run("should ignore an older version", func(t *testing.T) {
		p, err := settings.NewProvider(automation.DefaultSettings())
		require.NoError(t, err)
		v2 := automation.DefaultSettings()
		v2.Version = 2
		v1 := automation.DefaultSettings()
		v1.Version = 1
		v1.DeliveryTimeout = time.Hour

		require.NoError(t, p.Replace(v2))
		require.NoError(t, p.Replace(v1))

		assert.Equal(t, int64(2), p.Current().Version)
		assert.Equal(t, 45*time.Minute, p.Current().DeliveryTimeout)
	})

	t.Run("should not notify subscribers when the version is already installed", func(t *testing.T) {
		// Given
		p, err := settings.NewProvider(automation.DefaultSettings())
		require.NoError(t, err)
		stored := automation.DefaultSettings()
		stored.Version = 2
		calls := 0
		p.Subscribe(func(automation.Settings) { calls++ })

		// When
		require.NoError(t, p.Load(t.Context(), stubRepository{latest: stored}))
		require.NoError(t, p.Load(t.Context(), stubRepository{latest: stored}))

		// Then
		assert.Equal(t, 1, calls)
		assert.Equal(t, int64(2), p.Current().Version)
	})

	t.Run("should load the persisted version", func(t *testing.T) {
		p, err := settings.NewProvider(automation.DefaultSettings())
		require.NoError(t, err)
		stored := automation.DefaultSettings()
		stored.Version = 3
		stored.DeliveryTimeout = time.Hour

		err = p.Load(t.Context(), stubRepository{latest: stored})

		require.NoError(t, err)
		assert.Equal(t, stored, p.Current())
	})

	t.Run("should keep the fallback when nothing was persisted", func(t *testing.T) {
		p, err := settings.NewProvider(automation.DefaultSettings())
		require.NoError(t, err)

		err = p.Load(t.Context(), stubRepository{err: errs.NewObjectNotFoundError("settings", "latest")})

		require.NoError(t, err)
		assert.Equal(t, automation.DefaultSettings(), p.Current())
	})

	t.Run("should hand out consistent snapshots under concurrent replace", func(t *testing.T) {
		p, err := settings.NewProvider(automation.DefaultSettings())
		require.NoError(t, err)

		var wg sync.WaitGroup
		for i := 1; i <= 20; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				s := automation.DefaultSettings()
				s.Version = int64(i)
				s.PreparingToReady = time.Duration(i) * time.Minute
				assert.NoError(t, p.Replace(s))
			}()
			go func() {
				defer wg.Done()
				cur := p.Current()
				if cur.Version > 0 {
					assert.Equal(t, time.Duration(cur.Version)*time.Minute, cur.PreparingToReady)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int64(20), p.Current().Version)
	})
}
