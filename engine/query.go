// SPDX-License-Identifier: GPL-3.0-or-later
package engine

import (
	"sort"

	"github.com/CrawX/go-notmuch/native"
	"github.com/CrawX/go-notmuch/persistence"

	"github.com/sirupsen/logrus"
)

type query struct {
	db       *database
	qs       string
	sort     native.Sort
	omit     native.Exclude
	excludes []string
	buf      []byte
}

// matches is the result of running a query: the matched messages in sort
// order and the subset of them carrying an excluded tag.
type matches struct {
	messages []*persistence.Message
	excluded map[string]bool
}

var messageOrder = map[native.Sort]string{
	native.SortOldestFirst: "m.date, m.id",
	native.SortNewestFirst: "m.date DESC, m.id",
	native.SortMessageID:   "m.id",
	native.SortUnsorted:    "m.rowid",
}

func (q *query) run() (*matches, native.Status) {
	d := q.db
	if st := d.readable(); st != native.StatusSuccess {
		return nil, st
	}

	c, err := compile(q.qs)
	if err != nil {
		return nil, d.fail(native.StatusBadQuerySyntax, "%v", err)
	}

	excludes := q.activeExcludes(c)
	if len(excludes) > 0 && (q.omit == native.ExcludeTrue || q.omit == native.ExcludeAll) {
		c = c.and(excludedClause(excludes).not())
	}

	messages, err := d.store.Search(c.sql, c.args, messageOrder[q.sort])
	if err != nil {
		return nil, d.storeError(err)
	}

	m := &matches{messages: messages, excluded: map[string]bool{}}
	if len(excludes) > 0 && q.omit == native.ExcludeFlag {
		ec := excludedClause(excludes)
		flagged, err := d.store.Search(ec.sql, ec.args, "m.id")
		if err != nil {
			return nil, d.storeError(err)
		}
		for _, msg := range flagged {
			m.excluded[msg.ID] = true
		}
	}

	d.l.WithFields(logrus.Fields{"query": q.qs, "matches": len(messages)}).Trace("Ran query")
	return m, native.StatusSuccess
}

// activeExcludes drops excluded tags the query asks for explicitly.
func (q *query) activeExcludes(c clause) []string {
	named := map[string]bool{}
	for _, t := range c.tags {
		named[t] = true
	}
	excludes := []string{}
	for _, t := range q.excludes {
		if !named[t] {
			excludes = append(excludes, t)
		}
	}
	return excludes
}

func excludedClause(tags []string) clause {
	c := clause{sql: "0"}
	for _, t := range tags {
		c = c.or(clause{
			sql:  `EXISTS (SELECT 1 FROM tags t WHERE t.message_id = m.id AND t.tag = ?)`,
			args: []interface{}{t},
		})
	}
	return c
}

// threads groups the matches into threads.
func (q *query) threads(m *matches) ([]*thread, native.Status) {
	d := q.db
	order := []string{}
	matched := map[string]map[string]bool{}
	for _, msg := range m.messages {
		if matched[msg.ThreadID] == nil {
			matched[msg.ThreadID] = map[string]bool{}
			order = append(order, msg.ThreadID)
		}
		matched[msg.ThreadID][msg.ID] = true
	}

	var excludes []string
	if q.omit == native.ExcludeAll {
		c, _ := compile(q.qs)
		excludes = q.activeExcludes(c)
	}

	threads := make([]*thread, 0, len(order))
	for _, id := range order {
		t, st := d.loadThread(id, matched[id], m.excluded, excludes)
		if st != native.StatusSuccess {
			return nil, st
		}
		threads = append(threads, t)
	}

	switch q.sort {
	case native.SortOldestFirst:
		sort.SliceStable(threads, func(i, j int) bool { return threads[i].oldest < threads[j].oldest })
	case native.SortNewestFirst:
		sort.SliceStable(threads, func(i, j int) bool { return threads[i].newest > threads[j].newest })
	case native.SortMessageID:
		sort.SliceStable(threads, func(i, j int) bool { return threads[i].id < threads[j].id })
	}
	return threads, native.StatusSuccess
}

func (e *Engine) query(op string, p native.Ptr) *query {
	o, ok := e.lookup(op, p, native.KindQuery)
	if !ok {
		return nil
	}
	return o.value.(*query)
}

func (e *Engine) QueryCreate(p native.Ptr, queryString string) native.Ptr {
	e.mu.Lock()
	defer e.mu.Unlock()

	d := e.database("query_create", p)
	if d == nil || d.readable() != native.StatusSuccess {
		return native.Nil
	}
	return e.alloc(p, native.KindQuery, &query{
		db:   d,
		qs:   queryString,
		sort: native.SortNewestFirst,
		omit: native.ExcludeTrue,
	})
}

func (e *Engine) QueryGetQueryString(p native.Ptr) []byte {
	e.mu.Lock()
	defer e.mu.Unlock()

	q := e.query("query_get_query_string", p)
	if q == nil {
		return nil
	}
	q.buf = append(q.buf[:0], q.qs...)
	return q.buf
}

func (e *Engine) QuerySetOmitExcluded(p native.Ptr, omit native.Exclude) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if q := e.query("query_set_omit_excluded", p); q != nil {
		q.omit = omit
	}
}

func (e *Engine) QuerySetSort(p native.Ptr, sort native.Sort) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if q := e.query("query_set_sort", p); q != nil {
		q.sort = sort
	}
}

func (e *Engine) QueryGetSort(p native.Ptr) native.Sort {
	e.mu.Lock()
	defer e.mu.Unlock()

	q := e.query("query_get_sort", p)
	if q == nil {
		return native.SortUnsorted
	}
	return q.sort
}

func (e *Engine) QueryAddTagExclude(p native.Ptr, tag string) native.Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	q := e.query("query_add_tag_exclude", p)
	if q == nil {
		return native.StatusNullPointer
	}
	for _, t := range q.excludes {
		if t == tag {
			return native.StatusSuccess
		}
	}
	q.excludes = append(q.excludes, tag)
	return native.StatusSuccess
}

func (e *Engine) QuerySearchThreads(p native.Ptr) (native.Ptr, native.Status) {
	e.mu.Lock()
	defer e.mu.Unlock()

	q := e.query("query_search_threads", p)
	if q == nil {
		return native.Nil, native.StatusNullPointer
	}
	m, st := q.run()
	if st != native.StatusSuccess {
		return native.Nil, st
	}
	threads, st := q.threads(m)
	if st != native.StatusSuccess {
		return native.Nil, st
	}
	return e.alloc(p, native.KindThreads, &threadList{items: threads}), native.StatusSuccess
}

func (e *Engine) QuerySearchMessages(p native.Ptr) (native.Ptr, native.Status) {
	e.mu.Lock()
	defer e.mu.Unlock()

	q := e.query("query_search_messages", p)
	if q == nil {
		return native.Nil, native.StatusNullPointer
	}
	m, st := q.run()
	if st != native.StatusSuccess {
		return native.Nil, st
	}

	l := &messageList{db: q.db, matched: map[string]bool{}, excluded: m.excluded}
	for _, msg := range m.messages {
		l.ids = append(l.ids, msg.ID)
		l.matched[msg.ID] = true
	}
	return e.alloc(p, native.KindMessages, l), native.StatusSuccess
}

func (e *Engine) QueryCountThreads(p native.Ptr) (uint, native.Status) {
	e.mu.Lock()
	defer e.mu.Unlock()

	q := e.query("query_count_threads", p)
	if q == nil {
		return 0, native.StatusNullPointer
	}
	m, st := q.run()
	if st != native.StatusSuccess {
		return 0, st
	}
	threads := map[string]bool{}
	for _, msg := range m.messages {
		threads[msg.ThreadID] = true
	}
	return uint(len(threads)), native.StatusSuccess
}

func (e *Engine) QueryCountMessages(p native.Ptr) (uint, native.Status) {
	e.mu.Lock()
	defer e.mu.Unlock()

	q := e.query("query_count_messages", p)
	if q == nil {
		return 0, native.StatusNullPointer
	}
	m, st := q.run()
	if st != native.StatusSuccess {
		return 0, st
	}
	return uint(len(m.messages)), native.StatusSuccess
}

func (e *Engine) QueryDestroy(p native.Ptr) {
	e.destroyLocked("query_destroy", p, native.KindQuery)
}
