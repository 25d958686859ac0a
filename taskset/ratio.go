/*
 *  Copyright 2024 qitoi
 *
 *  Licensed under the Apache License, Version 2.0 (the "License");
 *  you may not use this file except in compliance with the License.
 *  You may obtain a copy of the License at
 *
 *      http://www.apache.org/licenses/LICENSE-2.0
 *
 *  Unless required by applicable law or agreed to in writing, software
 *  distributed under the License is distributed on an "AS IS" BASIS,
 *  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *  See the License for the specific language governing permissions and
 *  limitations under the License.
 */

package taskset

// Ratio returns the probability of each named task being picked by r.
// Unnamed tasks are grouped under "".
func Ratio(r *Random) map[string]float64 {
	ratio := map[string]float64{}
	tasks := r.Tasks()
	if len(tasks) == 0 {
		return ratio
	}
	for _, t := range tasks {
		ratio[GetName(t)] += 1 / float64(len(tasks))
	}
	return ratio
}
