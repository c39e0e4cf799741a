// SPDX-License-Identifier: GPL-3.0-or-later
package notmuch

import (
	"github.com/CrawX/go-notmuch/native"
)

// Query is a prepared search. Results borrow from it unless it was shared.
type Query struct {
	object
}

func (q *Query) Share() *Query {
	return &Query{q.share()}
}

func (q *Query) Move() *Query {
	return &Query{q.move()}
}

func (q *Query) String() string {
	return lossy(q.lib.QueryGetQueryString(q.ptr()))
}

func (q *Query) SetSort(sort Sort) {
	q.lib.QuerySetSort(q.ptr(), sort)
}

func (q *Query) Sort() Sort {
	return q.lib.QueryGetSort(q.ptr())
}

// SetOmitExcluded selects how messages carrying an excluded tag are treated.
func (q *Query) SetOmitExcluded(omit Exclude) {
	q.lib.QuerySetOmitExcluded(q.ptr(), omit)
}

// AddTagExclude excludes messages tagged tag. A tag the query names
// explicitly is not excluded.
func (q *Query) AddTagExclude(tag string) error {
	st := q.lib.QueryAddTagExclude(q.ptr(), tag)
	if st == native.StatusIgnored {
		return nil
	}
	return q.check("query_add_tag_exclude", st)
}

func (q *Query) SearchThreads() (*Threads, error) {
	ptr, st := q.lib.QuerySearchThreads(q.ptr())
	if err := q.check("query_search_threads", st); err != nil {
		return nil, err
	}
	o, err := q.derived("query_search_threads", native.KindThreads, ptr)
	if err != nil {
		return nil, err
	}
	return newThreads(o), nil
}

func (q *Query) SearchMessages() (*Messages, error) {
	ptr, st := q.lib.QuerySearchMessages(q.ptr())
	if err := q.check("query_search_messages", st); err != nil {
		return nil, err
	}
	o, err := q.derived("query_search_messages", native.KindMessages, ptr)
	if err != nil {
		return nil, err
	}
	return newMessages(o), nil
}

func (q *Query) CountThreads() (uint, error) {
	n, st := q.lib.QueryCountThreads(q.ptr())
	return n, q.check("query_count_threads", st)
}

func (q *Query) CountMessages() (uint, error) {
	n, st := q.lib.QueryCountMessages(q.ptr())
	return n, q.check("query_count_messages", st)
}
