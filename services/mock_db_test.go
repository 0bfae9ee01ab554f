package services

import (
	"context"
	"sort"
	"strings"
	"sync"

	"venturelink_server/models"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// tableKeys describes each table's primary key so the in-memory store can
// identify rows the way DynamoDB does.
var tableKeys = map[string][]string{
	models.ConnectionsTable:     {"pairKey"},
	models.ConversationsTable:   {"conversationId"},
	models.MessagesTable:        {"messageId"},
	models.MessageRequestsTable: {"requestId"},
	models.BlockedUsersTable:    {"blockerId", "blockedId"},
	models.InterestsTable:       {"senderId", "opportunityId"},
	models.UserProfilesTable:    {"userId"},
}

// mockDB is an in-memory DB implementation covering the expression subset
// the services use: single-field key conditions, SET/REMOVE updates and
// attribute_not_exists conditions.
type mockDB struct {
	mu     sync.Mutex
	tables map[string][]map[string]types.AttributeValue
}

func newMockDB() *mockDB {
	return &mockDB{tables: make(map[string][]map[string]types.AttributeValue)}
}

func avString(av types.AttributeValue) (string, bool) {
	s, ok := av.(*types.AttributeValueMemberS)
	if !ok {
		return "", false
	}
	return s.Value, true
}

func copyItem(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	out := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}

func (m *mockDB) keyMatches(item, key map[string]types.AttributeValue) bool {
	for k, want := range key {
		wantS, _ := avString(want)
		got, ok := item[k]
		if !ok {
			return false
		}
		gotS, _ := avString(got)
		if gotS != wantS {
			return false
		}
	}
	return true
}

func (m *mockDB) findIndex(table string, key map[string]types.AttributeValue) int {
	for i, item := range m.tables[table] {
		if m.keyMatches(item, key) {
			return i
		}
	}
	return -1
}

func (m *mockDB) primaryKeyOf(table string, item map[string]types.AttributeValue) map[string]types.AttributeValue {
	key := make(map[string]types.AttributeValue)
	for _, f := range tableKeys[table] {
		if v, ok := item[f]; ok {
			key[f] = v
		}
	}
	return key
}

func (m *mockDB) GetItem(_ context.Context, table string, key map[string]types.AttributeValue) (map[string]types.AttributeValue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if i := m.findIndex(table, key); i >= 0 {
		return copyItem(m.tables[table][i]), nil
	}
	return nil, nil
}

func (m *mockDB) PutItem(_ context.Context, table string, item interface{}) error {
	marshaled, err := marshalForMock(item)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := m.primaryKeyOf(table, marshaled)
	if i := m.findIndex(table, key); i >= 0 {
		m.tables[table][i] = marshaled
		return nil
	}
	m.tables[table] = append(m.tables[table], marshaled)
	return nil
}

func (m *mockDB) PutItemConditional(_ context.Context, table string, item interface{}, condition string) error {
	marshaled, err := marshalForMock(item)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := m.primaryKeyOf(table, marshaled)
	if i := m.findIndex(table, key); i >= 0 {
		if attr := notExistsAttr(condition); attr != "" {
			if _, present := m.tables[table][i][attr]; present {
				return ErrConditionalCheckFailed
			}
		}
		m.tables[table][i] = marshaled
		return nil
	}
	m.tables[table] = append(m.tables[table], marshaled)
	return nil
}

func (m *mockDB) UpdateItem(_ context.Context, table, expr string, key, values map[string]types.AttributeValue, names map[string]string) (map[string]types.AttributeValue, error) {
	return m.applyUpdate(table, expr, key, values, names, "")
}

func (m *mockDB) UpdateItemConditional(_ context.Context, table, expr string, key, values map[string]types.AttributeValue, names map[string]string, condition string) (map[string]types.AttributeValue, error) {
	return m.applyUpdate(table, expr, key, values, names, condition)
}

func (m *mockDB) applyUpdate(table, expr string, key, values map[string]types.AttributeValue, names map[string]string, condition string) (map[string]types.AttributeValue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.findIndex(table, key)
	var item map[string]types.AttributeValue
	if i >= 0 {
		item = m.tables[table][i]
	} else {
		item = copyItem(key)
	}

	if attr := notExistsAttr(condition); attr != "" {
		if _, present := item[attr]; present {
			return nil, ErrConditionalCheckFailed
		}
	}

	setPart := expr
	removePart := ""
	if idx := strings.Index(expr, "REMOVE"); idx >= 0 {
		setPart = strings.TrimSpace(expr[:idx])
		removePart = strings.TrimSpace(expr[idx+len("REMOVE"):])
	}
	if strings.HasPrefix(setPart, "SET ") {
		for _, assignment := range strings.Split(strings.TrimPrefix(setPart, "SET "), ",") {
			parts := strings.SplitN(assignment, "=", 2)
			if len(parts) != 2 {
				continue
			}
			field := strings.TrimSpace(parts[0])
			if resolved, ok := names[field]; ok {
				field = resolved
			}
			valueRef := strings.TrimSpace(parts[1])
			if v, ok := values[valueRef]; ok {
				item[field] = v
			}
		}
	}
	for _, field := range strings.Split(removePart, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		if resolved, ok := names[field]; ok {
			field = resolved
		}
		delete(item, field)
	}

	if i >= 0 {
		m.tables[table][i] = item
	} else {
		m.tables[table] = append(m.tables[table], item)
	}
	return copyItem(item), nil
}

func (m *mockDB) DeleteItem(_ context.Context, table string, key map[string]types.AttributeValue) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if i := m.findIndex(table, key); i >= 0 {
		m.tables[table] = append(m.tables[table][:i], m.tables[table][i+1:]...)
	}
	return nil
}

func (m *mockDB) query(table, keyCondition string, values map[string]types.AttributeValue, names map[string]string, limit int32, latestFirst bool, sorted bool) ([]map[string]types.AttributeValue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	parts := strings.SplitN(keyCondition, "=", 2)
	field := strings.TrimSpace(parts[0])
	if resolved, ok := names[field]; ok {
		field = resolved
	}
	want, _ := avString(values[strings.TrimSpace(parts[1])])

	var matches []map[string]types.AttributeValue
	for _, item := range m.tables[table] {
		if got, ok := item[field]; ok {
			if s, _ := avString(got); s == want {
				matches = append(matches, copyItem(item))
			}
		}
	}

	if sorted {
		sort.Slice(matches, func(a, b int) bool {
			ta, _ := avString(matches[a]["createdAt"])
			tb, _ := avString(matches[b]["createdAt"])
			pa, errA := models.ParseTimestamp(ta)
			pb, errB := models.ParseTimestamp(tb)
			if errA != nil || errB != nil {
				if latestFirst {
					return ta > tb
				}
				return ta < tb
			}
			if latestFirst {
				return pa.After(pb)
			}
			return pa.Before(pb)
		})
	}

	if limit > 0 && int32(len(matches)) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (m *mockDB) QueryItems(_ context.Context, table, keyCondition string, values map[string]types.AttributeValue, names map[string]string, limit int32) ([]map[string]types.AttributeValue, error) {
	return m.query(table, keyCondition, values, names, limit, false, false)
}

func (m *mockDB) QueryItemsWithIndex(_ context.Context, table, _, keyCondition string, values map[string]types.AttributeValue, names map[string]string, limit int32) ([]map[string]types.AttributeValue, error) {
	return m.query(table, keyCondition, values, names, limit, false, false)
}

func (m *mockDB) QueryItemsWithOptions(_ context.Context, table, _, keyCondition string, values map[string]types.AttributeValue, names map[string]string, limit int32, latestFirst bool) ([]map[string]types.AttributeValue, error) {
	return m.query(table, keyCondition, values, names, limit, latestFirst, true)
}

func (m *mockDB) ScanItems(_ context.Context, table string) ([]map[string]types.AttributeValue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]map[string]types.AttributeValue, 0, len(m.tables[table]))
	for _, item := range m.tables[table] {
		out = append(out, copyItem(item))
	}
	return out, nil
}

func notExistsAttr(condition string) string {
	const prefix = "attribute_not_exists("
	if !strings.HasPrefix(condition, prefix) {
		return ""
	}
	return strings.TrimSuffix(strings.TrimPrefix(condition, prefix), ")")
}
