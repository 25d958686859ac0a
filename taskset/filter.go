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

// FilterOption configures a tag filter.
type FilterOption func(opt *filterOptions)

type filterOptions struct {
	include map[string]struct{} // nil: everything is included
	exclude map[string]struct{}
}

// IncludeTags keeps only tasks carrying at least one of tags.
func IncludeTags(tags ...string) FilterOption {
	return func(opt *filterOptions) {
		opt.include = toSet(tags)
	}
}

// ExcludeTags drops tasks carrying any of tags.
func ExcludeTags(tags ...string) FilterOption {
	return func(opt *filterOptions) {
		opt.exclude = toSet(tags)
	}
}

// FilterTasks returns the tasks matching opts. Nested tasksets are filtered in place:
// a tagged taskset passes its inclusion to all its tasks, an untagged one is kept
// when any of its tasks match.
func FilterTasks(tasks []Task, opts ...FilterOption) []Task {
	var option filterOptions
	for _, opt := range opts {
		opt(&option)
	}
	return option.filter(tasks)
}

func (o filterOptions) filter(tasks []Task) []Task {
	filtered := make([]Task, 0, len(tasks))
	for _, task := range tasks {
		tags := GetTags(task)
		if o.excluded(tags) {
			continue
		}
		included := o.included(tags)

		if ts, ok := unwrapTask[TaskSet](task); ok {
			inner := o
			if included {
				inner.include = nil
			}
			ts.FilterTasks(inner.filter)
			included = ts.Len() > 0
		}

		if included {
			filtered = append(filtered, task)
		}
	}
	return filtered
}

func (o filterOptions) included(tags []string) bool {
	if o.include == nil {
		return true
	}
	for _, tag := range tags {
		if _, ok := o.include[tag]; ok {
			return true
		}
	}
	return false
}

func (o filterOptions) excluded(tags []string) bool {
	for _, tag := range tags {
		if _, ok := o.exclude[tag]; ok {
			return true
		}
	}
	return false
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
