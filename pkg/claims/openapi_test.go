/*
Copyright 2026 The Driftcore Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package claims_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/driftsentry/driftcore/pkg/claims"
)

const samplePetstoreSpec = `
openapi: 3.0.0
info:
  title: Pet Store
  version: 1.2.0
paths:
  /pets:
    get:
      responses:
        '200':
          description: ok
    post:
      responses:
        '201':
          description: created
  /pets/{id}:
    get:
      responses:
        '200':
          description: ok
`

var _ = Describe("ExtractOpenAPI", func() {
	It("lists every declared operation as an endpoint claim", func() {
		docCtx, err := claims.ExtractOpenAPI(samplePetstoreSpec, claims.DefaultBudgets)
		Expect(err).ToNot(HaveOccurred())
		Expect(docCtx.Artifacts.Endpoints).To(ConsistOf(
			"GET /pets", "POST /pets", "GET /pets/{id}",
		))
		Expect(docCtx.Artifacts.Versions).To(ConsistOf("1.2.0"))
	})

	It("rejects content that isn't a valid OpenAPI document", func() {
		_, err := claims.ExtractOpenAPI("# just a readme\n\nsome prose.", claims.DefaultBudgets)
		Expect(err).To(HaveOccurred())
	})
})
