// Package service contains the application-specific use cases and business
// logic of the task tracker. It orchestrates interactions between domain
// objects and repositories (defined in internal/store) to fulfill the five
// task operations: create, get, list, partial update, and soft delete.
//
// Key components:
//
// 1. TaskService:
//   - The repository facade used by the API layer
//   - Applies transactional boundaries so a task row and its tag links are
//     written atomically
//   - Translates store-specific errors into application-level errors
//
// 2. TagReconciler:
//   - Resolves free-text tag names to canonical Tag rows, creating missing
//     ones and recovering from the concurrent-create race on the unique
//     name index
//
// 3. Payload validation:
//   - Params structs validate incoming payloads with per-field error
//     accumulation, producing a ValidationError carrying a field-to-message
//     map instead of failing on the first problem
//
// The service layer depends on domain entities and repository interfaces
// (from store), but never on specific infrastructure implementations,
// maintaining the Dependency Inversion Principle of clean architecture.
package service
