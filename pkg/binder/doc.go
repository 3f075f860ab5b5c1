// Package binder fills request structs from path parameters, query strings,
// urlencoded forms, JSON bodies and DataStar signals.
//
// Each binder handles only its own struct tag, so several binders can be
// chained on one request type:
//
//	type PhoneRequest struct {
//		FlowID string `path:"flowID"`
//		Phone  string `form:"phone" json:"phone"`
//	}
//
// A binder that does not apply to a request returns ErrNotApplicable and is
// skipped by handler.Wrap.
package binder
