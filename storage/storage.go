package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"

	"taskboard-api/domain"
)

// Storage provides access to the underlying persistence mechanisms. Tables
// are partitioned by workspace id (workspaces partition on their own id), so
// every workspace-scoped listing is a single-partition query.
type Storage struct {
	workspaceTable *aztables.Client
	memberTable    *aztables.Client
	projectTable   *aztables.Client
	taskTable      *aztables.Client
	eventQueue     *azqueue.QueueClient
}

// Config names the tables and queue a Storage binds to.
type Config struct {
	ConnStr         string
	WorkspacesTable string
	MembersTable    string
	ProjectsTable   string
	TasksTable      string
	EventQueue      string
}

// New creates a Storage instance from the given configuration.
func New(cfg Config) (*Storage, error) {
	tablesClientOptions := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(cfg.ConnStr, &tablesClientOptions)
	if err != nil {
		return nil, err
	}
	queueClientOptions := azqueue.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    5,
				TryTimeout:    time.Minute * 5,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 60,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	eq, err := azqueue.NewQueueClientFromConnectionString(cfg.ConnStr, cfg.EventQueue, &queueClientOptions)
	if err != nil {
		return nil, err
	}
	return &Storage{
		workspaceTable: svc.NewClient(cfg.WorkspacesTable),
		memberTable:    svc.NewClient(cfg.MembersTable),
		projectTable:   svc.NewClient(cfg.ProjectsTable),
		taskTable:      svc.NewClient(cfg.TasksTable),
		eventQueue:     eq,
	}, nil
}

func isStatus(err error, code int) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == code
}

// mapWriteErr translates table write failures into domain sentinels.
func mapWriteErr(err error) error {
	switch {
	case err == nil:
		return nil
	case isStatus(err, 404):
		return domain.ErrNotFound
	case isStatus(err, 409), isStatus(err, 412):
		return domain.ErrConflict
	}
	return err
}

func (s *Storage) getEntity(ctx context.Context, table *aztables.Client, pk, rk string, out any) (bool, error) {
	ent, err := table.GetEntity(ctx, pk, rk, nil)
	if err != nil {
		if isStatus(err, 404) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(ent.Value, out); err != nil {
		return false, err
	}
	return true, nil
}

// queryEntities runs a filtered listing, decoding each page row through visit.
func queryEntities(ctx context.Context, table *aztables.Client, filter string, visit func(raw []byte) error) error {
	pager := table.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return err
		}
		for _, e := range resp.Entities {
			if err := visit(e); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Storage) insertEntity(ctx context.Context, table *aztables.Client, ent any) error {
	payload, err := json.Marshal(ent)
	if err != nil {
		return err
	}
	_, err = table.AddEntity(ctx, payload, nil)
	return mapWriteErr(err)
}

func (s *Storage) updateEntity(ctx context.Context, table *aztables.Client, ent any) error {
	payload, err := json.Marshal(ent)
	if err != nil {
		return err
	}
	et := azcore.ETagAny
	_, err = table.UpdateEntity(ctx, payload, &aztables.UpdateEntityOptions{IfMatch: &et, UpdateMode: aztables.UpdateModeReplace})
	return mapWriteErr(err)
}

func (s *Storage) deleteEntity(ctx context.Context, table *aztables.Client, pk, rk string) error {
	_, err := table.DeleteEntity(ctx, pk, rk, nil)
	if isStatus(err, 404) {
		return nil
	}
	return err
}

// deletePartition removes every row of one partition, one delete per row.
// Azure table batches are capped at 100 operations, so per-row deletes keep
// this simple at the workspace sizes this service targets.
func (s *Storage) deletePartition(ctx context.Context, table *aztables.Client, pk string) error {
	var rowKeys []string
	err := queryEntities(ctx, table, partitionFilter(pk), func(raw []byte) error {
		var ent aztables.Entity
		if err := json.Unmarshal(raw, &ent); err != nil {
			return err
		}
		rowKeys = append(rowKeys, ent.RowKey)
		return nil
	})
	if err != nil {
		return err
	}
	for _, rk := range rowKeys {
		if err := s.deleteEntity(ctx, table, pk, rk); err != nil {
			return err
		}
	}
	return nil
}

// EnqueueEvent publishes one advisory event to the event queue.
func (s *Storage) EnqueueEvent(ctx context.Context, ev domain.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = s.eventQueue.EnqueueMessage(ctx, string(data), nil)
	return err
}
