/*
 * Copyright 2024 CloudWeGo Authors
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

package payload

// AsDisjointedHead returns h with the disjointed bit set, used once a
// head block's payload has been populated with its children's handles
// (memmanager.AllocateDisjointedBuffer / CreateDisjointedFromExisting).
func (h Handle) AsDisjointedHead() Handle {
	return Handle(uint64(h) | disjointedBit)
}
