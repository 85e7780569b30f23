package model

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"churn-workers/internal/churn"
	"churn-workers/internal/common/config"
)

func record() churn.FeatureRecord {
	return churn.FeatureRecord{
		churn.FieldCreditScore:     600,
		churn.FieldGeography:       1,
		churn.FieldGender:          0,
		churn.FieldAge:             45,
		churn.FieldTenure:          3,
		churn.FieldBalance:         50000,
		churn.FieldNumOfProducts:   1,
		churn.FieldHasCrCard:       1,
		churn.FieldIsActiveMember:  0,
		churn.FieldEstimatedSalary: 50000,
	}
}

func twoFeatureArtifact() Artifact {
	return Artifact{
		Features:  []string{churn.FieldAge, churn.FieldIsActiveMember},
		Mean:      []float64{40, 0.5},
		Scale:     []float64{10, 0.5},
		Coef:      []float64{0.8, -0.6},
		Intercept: -1.2,
		Version:   "test",
	}
}

func TestLogistic_Score(t *testing.T) {
	m, err := NewLogistic(twoFeatureArtifact())
	require.NoError(t, err)
	assert.Equal(t, "test", m.Version())

	p, err := m.Score(context.Background(), record())
	require.NoError(t, err)

	// z = -1.2 + 0.8*(45-40)/10 - 0.6*(0-0.5)/0.5
	z := -1.2 + 0.4 + 0.6
	assert.InDelta(t, 1/(1+math.Exp(-z)), p, 1e-12)

	active := record()
	active[churn.FieldIsActiveMember] = 1
	q, err := m.Score(context.Background(), active)
	require.NoError(t, err)
	assert.Less(t, q, p)
}

func TestLogistic_ScoreIsDeterministic(t *testing.T) {
	m, err := NewLogistic(twoFeatureArtifact())
	require.NoError(t, err)

	a, _ := m.Score(context.Background(), record())
	b, _ := m.Score(context.Background(), record())
	assert.Equal(t, a, b)
}

func TestLogistic_ScoreMissingFeature(t *testing.T) {
	m, err := NewLogistic(twoFeatureArtifact())
	require.NoError(t, err)

	r := record()
	delete(r, churn.FieldAge)
	_, err = m.Score(context.Background(), r)
	assert.Error(t, err)
}

func TestLogistic_ScoreCancelled(t *testing.T) {
	m, err := NewLogistic(twoFeatureArtifact())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = m.Score(ctx, record())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewLogistic_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(a *Artifact)
	}{
		{name: "no features", mutate: func(a *Artifact) { *a = Artifact{} }},
		{name: "dimension mismatch", mutate: func(a *Artifact) { a.Coef = a.Coef[:1] }},
		{name: "unknown feature", mutate: func(a *Artifact) { a.Features[0] = "Surname" }},
		{name: "zero scale", mutate: func(a *Artifact) { a.Scale[1] = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := twoFeatureArtifact()
			tt.mutate(&a)
			_, err := NewLogistic(a)
			assert.Error(t, err)
		})
	}
}

func TestLoad_Logistic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	data, err := json.Marshal(twoFeatureArtifact())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	s, err := Load(config.ModelConfig{Type: config.ModelTypeLogistic, ArtifactPath: path})
	require.NoError(t, err)
	assert.IsType(t, &Logistic{}, s)

	_, err = Load(config.ModelConfig{Type: config.ModelTypeLogistic, ArtifactPath: filepath.Join(t.TempDir(), "none.json")})
	assert.Error(t, err)
}

func TestLoad_Unknown(t *testing.T) {
	_, err := Load(config.ModelConfig{Type: "forest"})
	assert.Error(t, err)

	_, err = Load(config.ModelConfig{Type: config.ModelTypeRemote})
	assert.Error(t, err)
}

func TestRemote_Score(t *testing.T) {
	var got predictRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(predictResponse{Probabilities: []float64{0.37}})
	}))
	defer srv.Close()

	s, err := Load(config.ModelConfig{Type: config.ModelTypeRemote, RemoteURL: srv.URL, Timeout: 1000})
	require.NoError(t, err)

	p, err := s.Score(context.Background(), record())
	require.NoError(t, err)
	assert.Equal(t, 0.37, p)
	require.Len(t, got.Instances, 1)
	assert.Equal(t, record(), got.Instances[0])
}

func TestRemote_ScoreErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "model not loaded", http.StatusServiceUnavailable)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("{not json"))
			},
		},
		{
			name: "wrong number of probabilities",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"probabilities":[0.1,0.2]}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := NewRemote(srv.URL, time.Second).Score(context.Background(), record())
			assert.Error(t, err)
		})
	}
}

func TestBundledArtifact(t *testing.T) {
	m, err := LoadLogistic(filepath.Join("..", "..", "..", "configs", "model", "churn_model.json"))
	require.NoError(t, err)

	p, err := m.Score(context.Background(), record())
	require.NoError(t, err)
	assert.NoError(t, churn.CheckProbability(p))
}

func TestInstrumented(t *testing.T) {
	boom := errors.New("model down")
	calls := 0
	inner := churn.ScorerFunc(func(context.Context, churn.FeatureRecord) (float64, error) {
		calls++
		if calls == 2 {
			return 0, boom
		}
		return 0.42, nil
	})

	s := Instrument(inner)
	p, err := s.Score(context.Background(), record())
	require.NoError(t, err)
	assert.Equal(t, 0.42, p)

	_, err = s.Score(context.Background(), record())
	assert.Same(t, boom, err)
	assert.Equal(t, "unknown", s.Version())

	m, err := NewLogistic(twoFeatureArtifact())
	require.NoError(t, err)
	assert.Equal(t, "test", Instrument(m).Version())
	assert.Equal(t, "remote:http://model:8501/predict", VersionOf(NewRemote("http://model:8501/predict", time.Second)))
}
