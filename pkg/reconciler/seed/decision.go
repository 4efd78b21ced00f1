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

package seed

// A Decision is a step an entity goes through during reconciliation.
type Decision string

// Decisions.
const (
	// DecisionNoUpdateURI means the entity's type cannot be looked up, so the
	// entity is created.
	DecisionNoUpdateURI Decision = "NoUpdateURI"

	// DecisionCheckingExistence means the entity is being looked up.
	DecisionCheckingExistence Decision = "CheckingExistence"

	// DecisionDiff means the entity exists and is compared with its model.
	DecisionDiff Decision = "Diff"

	// DecisionUpdate means the entity exists and is updated.
	DecisionUpdate Decision = "Update"

	// DecisionLeaveAsIs means the entity exists and is not touched.
	DecisionLeaveAsIs Decision = "LeaveAsIs"

	// DecisionCreate means the entity is created.
	DecisionCreate Decision = "Create"

	// DecisionReportCreation means the entity does not exist and would be
	// created outside verify mode.
	DecisionReportCreation Decision = "ReportCreation"

	// DecisionChildren means the entity's children are reconciled.
	DecisionChildren Decision = "Children"
)

// An Observation of an entity and the run's settings.
type Observation struct {
	// Exists is true if the entity was found.
	Exists bool

	// Verify is true in verify mode.
	Verify bool

	// Update is true if updates are enabled.
	Update bool

	// HasData is true if the entity declares data beyond its identity.
	HasData bool

	// ForceUpdate is true if the entity asks to be updated.
	ForceUpdate bool
}

// Decide what to do with an entity once it has been looked up.
func Decide(o Observation) Decision {
	switch {
	case !o.Exists && o.Verify:
		return DecisionReportCreation
	case !o.Exists:
		return DecisionCreate
	case o.Verify && o.HasData:
		return DecisionDiff
	case (o.Update && o.HasData) || o.ForceUpdate:
		return DecisionUpdate
	}
	return DecisionLeaveAsIs
}
