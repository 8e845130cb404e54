// Package search keeps advisor profiles in an Elasticsearch index.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/asesorame/asesorame/internal/models"
	"github.com/elastic/go-elasticsearch/v9"
	"github.com/google/uuid"
)

const DefaultIndex = "advisors"

type Config struct {
	URL      string
	User     string
	Password string
	Index    string
}

type AdvisorDoc struct {
	ID          string   `json:"id"`
	FirstName   string   `json:"firstName"`
	LastName    string   `json:"lastName"`
	Bio         string   `json:"bio"`
	Specialties []string `json:"specialties"`
	HourlyRate  float64  `json:"hourlyRate"`
	Rating      float64  `json:"rating"`
}

func DocFromUser(u *models.User) AdvisorDoc {
	return AdvisorDoc{
		ID:          u.ID.String(),
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Bio:         u.Profile.Bio,
		Specialties: []string(u.Profile.Specialties),
		HourlyRate:  u.Profile.HourlyRate,
		Rating:      u.Profile.Rating,
	}
}

type Index struct {
	es    *elasticsearch.Client
	index string
}

// NewIndex connects and verifies the cluster answers Info.
func NewIndex(cfg Config) (*Index, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.User,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch info: %s: %s", res.Status(), body)
	}

	index := cfg.Index
	if index == "" {
		index = DefaultIndex
	}
	return &Index{es: client, index: index}, nil
}

func (i *Index) Name() string { return i.index }

func (i *Index) IndexAdvisor(ctx context.Context, u *models.User) error {
	body, err := json.Marshal(DocFromUser(u))
	if err != nil {
		return err
	}

	res, err := i.es.Index(i.index, bytes.NewReader(body),
		i.es.Index.WithContext(ctx),
		i.es.Index.WithDocumentID(u.ID.String()),
	)
	if err != nil {
		return fmt.Errorf("index advisor: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index advisor: %s", res.Status())
	}
	return nil
}

// Search runs a fuzzy multi_match over names, bio and specialties and
// returns the total hit count with the ids of the requested page.
func (i *Index) Search(ctx context.Context, query string, from, size int) (int64, []uuid.UUID, error) {
	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"firstName^2", "lastName^2", "specialties^2", "bio"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("search encode: %w", err)
	}

	res, err := i.es.Search(
		i.es.Search.WithContext(ctx),
		i.es.Search.WithIndex(i.index),
		i.es.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		b, _ := io.ReadAll(res.Body)
		return 0, nil, fmt.Errorf("search: %s: %s", res.Status(), strings.TrimSpace(string(b)))
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source AdvisorDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, err
	}

	ids := make([]uuid.UUID, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		id, err := uuid.Parse(hit.Source.ID)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return r.Hits.Total.Value, ids, nil
}
