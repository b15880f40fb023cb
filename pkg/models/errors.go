/*
 * Copyright 2025 Carver Automation Corporation.
 *
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

package models

import "errors"

var (
	// ErrPrivilegeRequired indicates the operation needs elevation. It is
	// reported distinctly from generic I/O failures so installers can
	// prompt for elevation rather than retry.
	ErrPrivilegeRequired = errors.New("administrative privileges required")

	// ErrPortInUse indicates the responder could not bind its listen port.
	ErrPortInUse = errors.New("listen port already in use")

	// ErrSnapshotMissing indicates a revert was attempted without a prior
	// state snapshot; automatic restoration is unsafe in that case.
	ErrSnapshotMissing = errors.New("no state snapshot found")

	// ErrStateWrite indicates a registry or hosts-file mutation partially
	// failed.
	ErrStateWrite = errors.New("system state write failed")

	// ErrConfigInvalid indicates a malformed or missing required setting.
	ErrConfigInvalid = errors.New("invalid configuration")

	errInvalidDuration = errors.New("invalid duration value")
)
