/*
Copyright 2026 The Crossplane Authors.
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

/*
Package seed reconciles the data model of a remote REST API with the entities
declared in model files.

# Model files

A manifest names models in order. Each model is a JSON array of entities of
one type, where the type is derived from the model's name: "users_admin.json"
holds entities of type "users". A model may itself be a manifest, in which
case it is expanded in place, depth first.

Entities may carry directives, which are stripped before anything is sent:

  - _update forces an existing entity to be updated.
  - _subst runs the Listener's substitution on the entity before it is sent.
  - _jsonSubst runs the Listener's JSON substitution before it is decoded.

An entity may declare children, keyed by child type, under "children".

# Reconciliation

For each entity the Reconciler looks the entity up at its type's update URI.
An entity that does not exist is created. An entity that exists is left as is
unless updates are enabled and the entity declares data beyond its identity,
or it is forced. In verify mode nothing is written; differences and missing
entities are reported to a VerifyLog instead.

URI templates are resolved from the entity's ancestors first, using
{type.field}, then from the entity itself, using {field}. An unresolved {uuid}
falls back to the entity's name, and if that is missing too the entity is
treated as one that cannot be looked up.

Children are reconciled once their parent is resolved, concurrently and with
a bounded number of requests in flight. Each child branch works on a clone of
the client. The failures of one batch are aggregated into a single error.

# Usage

	c, _ := rest.NewClient("http://localhost:8080")
	r := seed.NewReconciler(c,
		seed.WithLogger(log),
		seed.WithUpdate(true),
	)
	err := r.Run(ctx, manifest.NewOsResolver("models"), "manifest")
*/
package seed
