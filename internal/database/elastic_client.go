package database

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/locvowork/hrms/internal/domain"
	"github.com/olivere/elastic/v7"
)

const timesheetMapping = `{
	"mappings": {
		"properties": {
			"id":          {"type": "keyword"},
			"employee_id": {"type": "keyword"},
			"status":      {"type": "keyword"},
			"week_start":  {"type": "date", "format": "yyyy-MM-dd"},
			"week_end":    {"type": "date", "format": "yyyy-MM-dd"},
			"total_hours": {"type": "scaled_float", "scaling_factor": 100},
			"project_ids": {"type": "keyword"},
			"tasks":       {"type": "text"},
			"rejection_reason": {"type": "text"},
			"updated_at":  {"type": "date"}
		}
	}
}`

// TimesheetDoc is the search-side projection of a timesheet.
type TimesheetDoc struct {
	ID              string    `json:"id"`
	EmployeeID      string    `json:"employee_id"`
	Status          string    `json:"status"`
	WeekStart       string    `json:"week_start"`
	WeekEnd         string    `json:"week_end"`
	TotalHours      float64   `json:"total_hours"`
	ProjectIDs      []string  `json:"project_ids"`
	Tasks           []string  `json:"tasks"`
	RejectionReason string    `json:"rejection_reason,omitempty"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NewTimesheetDoc projects ts into its indexed form.
func NewTimesheetDoc(ts domain.Timesheet) TimesheetDoc {
	total, _ := ts.TotalHours.Float64()
	doc := TimesheetDoc{
		ID:              ts.ID,
		EmployeeID:      ts.EmployeeID,
		Status:          string(ts.Status),
		WeekStart:       ts.WeekStart.Format("2006-01-02"),
		WeekEnd:         ts.WeekEnd.Format("2006-01-02"),
		TotalHours:      total,
		RejectionReason: ts.RejectionReason,
		UpdatedAt:       ts.UpdatedAt,
	}
	seen := make(map[string]bool)
	for _, r := range ts.Rows {
		if !seen[r.ProjectID] {
			seen[r.ProjectID] = true
			doc.ProjectIDs = append(doc.ProjectIDs, r.ProjectID)
		}
		doc.Tasks = append(doc.Tasks, r.TaskDescription)
	}
	return doc
}

// ElasticSearchClient wraps olivere/elastic and implements
// domain.TimesheetIndexer.
type ElasticSearchClient struct {
	client *elastic.Client
	index  string
}

var _ domain.TimesheetIndexer = (*ElasticSearchClient)(nil)

// NewElasticSearchClient creates a client for Elasticsearch 7.x.
func NewElasticSearchClient(url, index string) (*ElasticSearchClient, error) {
	client, err := elastic.NewClient(
		elastic.SetURL(url),
		elastic.SetSniff(false), // Essential when using Docker or cloud
		elastic.SetHealthcheckTimeoutStartup(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	return &ElasticSearchClient{client: client, index: index}, nil
}

// EnsureIndex creates the timesheet index with its mapping when missing.
func (es *ElasticSearchClient) EnsureIndex(ctx context.Context) error {
	exists, err := es.client.IndexExists(es.index).Do(ctx)
	if err != nil {
		return fmt.Errorf("checking index %s: %w", es.index, err)
	}
	if exists {
		return nil
	}
	if _, err := es.client.CreateIndex(es.index).BodyString(timesheetMapping).Do(ctx); err != nil {
		return fmt.Errorf("creating index %s: %w", es.index, err)
	}
	return nil
}

// IndexTimesheet upserts one timesheet document keyed by its ID.
func (es *ElasticSearchClient) IndexTimesheet(ctx context.Context, ts domain.Timesheet) error {
	_, err := es.client.Index().
		Index(es.index).
		Id(ts.ID).
		BodyJson(NewTimesheetDoc(ts)).
		Refresh("wait_for").
		Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to index timesheet %s: %w", ts.ID, err)
	}
	return nil
}

// DeleteTimesheet removes a document. A missing document is not an error.
func (es *ElasticSearchClient) DeleteTimesheet(ctx context.Context, id string) error {
	_, err := es.client.Delete().Index(es.index).Id(id).Do(ctx)
	if err != nil && !elastic.IsNotFound(err) {
		return fmt.Errorf("failed to delete timesheet %s: %w", id, err)
	}
	return nil
}

// SearchTimesheets runs a full-text match over task descriptions and
// rejection reasons, restricted to employeeIDs when given. It returns the
// matching timesheet IDs ordered by score.
func (es *ElasticSearchClient) SearchTimesheets(ctx context.Context, query string, employeeIDs []string) ([]string, error) {
	q := elastic.NewBoolQuery().
		Must(elastic.NewMultiMatchQuery(query, "tasks", "rejection_reason").Fuzziness("AUTO"))
	if len(employeeIDs) > 0 {
		ids := make([]interface{}, len(employeeIDs))
		for i, id := range employeeIDs {
			ids[i] = id
		}
		q = q.Filter(elastic.NewTermsQuery("employee_id", ids...))
	}

	searchResult, err := es.client.Search().
		Index(es.index).
		Query(q).
		FetchSource(false).
		Size(100).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	ids := make([]string, 0, len(searchResult.Hits.Hits))
	for _, hit := range searchResult.Hits.Hits {
		ids = append(ids, hit.Id)
	}
	return ids, nil
}

// BulkIndexTimesheets efficiently indexes multiple timesheets.
func (es *ElasticSearchClient) BulkIndexTimesheets(ctx context.Context, timesheets []domain.Timesheet) error {
	bulkRequest := es.client.Bulk()

	for _, ts := range timesheets {
		req := elastic.NewBulkIndexRequest().
			Index(es.index).
			Id(ts.ID).
			Doc(NewTimesheetDoc(ts))
		bulkRequest = bulkRequest.Add(req)
	}

	if bulkRequest.NumberOfActions() == 0 {
		return nil
	}

	bulkResponse, err := bulkRequest.Refresh("true").Do(ctx)
	if err != nil {
		return fmt.Errorf("bulk index failed: %w", err)
	}

	if bulkResponse.Errors {
		for _, item := range bulkResponse.Failed() {
			if item.Error != nil {
				return fmt.Errorf("bulk item %s failed: %s", item.Id, item.Error.Reason)
			}
		}
	}

	return nil
}

// ScrollTimesheetIDs returns the IDs of every indexed document.
func (es *ElasticSearchClient) ScrollTimesheetIDs(ctx context.Context) ([]string, error) {
	var ids []string

	scroll := es.client.Scroll(es.index).
		Size(1000).
		KeepAlive("2m").
		FetchSource(false).
		Sort("_doc", true)
	defer scroll.Clear(context.Background())

	for {
		results, err := scroll.Do(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("scroll error: %w", err)
		}
		for _, hit := range results.Hits.Hits {
			ids = append(ids, hit.Id)
		}
	}
	return ids, nil
}
