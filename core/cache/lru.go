package cache

import (
	"container/list"
	"time"
)

type LRUOpts struct {
	// Size is the maximum number of entries. Defaults to 1024.
	Size int
}

type entry struct {
	key       string
	val       any
	expiresAt time.Time // zero = never
}

type getReq struct {
	key  string
	resp chan getResp
}

type getResp struct {
	val any
	ok  bool
}

type putReq struct {
	key  string
	val  any
	opts PutOptions
}

// LRU is an in-memory cache with LRU eviction and optional per-entry TTL.
// All operations funnel through one goroutine, so it is safe for concurrent
// use without locking.
type LRU struct {
	getCh chan getReq
	putCh chan putReq
	delCh chan string
}

func NewLRU(opts LRUOpts) *LRU {
	if opts.Size <= 0 {
		opts.Size = 1024
	}

	l := &LRU{
		getCh: make(chan getReq),
		putCh: make(chan putReq),
		delCh: make(chan string),
	}

	go l.run(opts.Size)

	return l
}

func (l *LRU) Get(key string) (any, bool) {
	resp := make(chan getResp)
	l.getCh <- getReq{key: key, resp: resp}
	r := <-resp
	return r.val, r.ok
}

func (l *LRU) Put(key string, val any, opts ...PutOption) {
	var o PutOptions
	for _, opt := range opts {
		opt(&o)
	}
	l.putCh <- putReq{key: key, val: val, opts: o}
}

func (l *LRU) Delete(key string) {
	l.delCh <- key
}

func (l *LRU) run(size int) {
	ll := list.New()
	idx := make(map[string]*list.Element)

	remove := func(ele *list.Element) {
		ll.Remove(ele)
		delete(idx, ele.Value.(*entry).key)
	}

	for {
		select {
		case req := <-l.getCh:
			ele, ok := idx[req.key]
			if !ok {
				req.resp <- getResp{ok: false}
				continue
			}
			ent := ele.Value.(*entry)
			if !ent.expiresAt.IsZero() && time.Now().After(ent.expiresAt) {
				remove(ele)
				req.resp <- getResp{ok: false}
				continue
			}
			ll.MoveToFront(ele)
			req.resp <- getResp{val: ent.val, ok: true}

		case req := <-l.putCh:
			var expiresAt time.Time
			if req.opts.TTL > 0 {
				expiresAt = time.Now().Add(req.opts.TTL)
			}
			if ele, ok := idx[req.key]; ok {
				ll.MoveToFront(ele)
				ent := ele.Value.(*entry)
				ent.val = req.val
				ent.expiresAt = expiresAt
				continue
			}
			ele := ll.PushFront(&entry{key: req.key, val: req.val, expiresAt: expiresAt})
			idx[req.key] = ele
			if ll.Len() > size {
				if last := ll.Back(); last != nil {
					remove(last)
				}
			}

		case key := <-l.delCh:
			if ele, ok := idx[key]; ok {
				remove(ele)
			}
		}
	}
}

var _ Cache = (*LRU)(nil)
