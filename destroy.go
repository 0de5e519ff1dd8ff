/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package crudgrid

import (
	"context"

	"github.com/tomoncle/crudgrid/database"
	"github.com/tomoncle/crudgrid/repository"
)

// Message keys looked up by Destroy.
const (
	KeyReferenceNotFound = "error.reference.404"
	KeySQLErrorPrefix    = "SQL error "
	KeyUnhandledSQLError = "Unhandled SQL error"
)

// Destroy deletes the records whose key is req.ID, a scalar or an array.
// Failures never escape: an empty id answers {status:false}, deleting
// nothing answers the reference-not-found message and database faults are
// translated by their SQLSTATE code.
func (c *Controller[T]) Destroy(ctx context.Context, req *Request) *Response {
	if repository.IsEmptyKey(req.ID) {
		return &Response{Status: false}
	}
	repo, err := c.repository()
	if err != nil {
		return failure(err.Error())
	}
	deleted, err := repo.DeleteByIDs(ctx, c.opts.scope, req.IDs()...)
	if err != nil {
		c.opts.logger.Warn("Delete failed", "id", req.ID, "error", err)
		return failure(c.faultMessage(err))
	}
	if deleted == 0 {
		return failure(c.opts.translator.Get(KeyReferenceNotFound, nil))
	}
	return &Response{Status: true}
}

func (c *Controller[T]) faultMessage(err error) string {
	code, ok := database.FaultCode(err)
	if !ok {
		return err.Error()
	}
	tr := c.opts.translator
	if key := KeySQLErrorPrefix + code; tr.Has(key) {
		return tr.Get(key, nil)
	}
	return tr.Get(KeyUnhandledSQLError, map[string]any{"code": code})
}
