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

package porterload

import (
	"math"
	"sync/atomic"

	"github.com/shirou/gopsutil/process"
)

// processInfo samples the CPU and memory usage reported in heartbeats.
type processInfo struct {
	proc        *process.Process
	cpuUsage    atomic.Uint64
	memoryUsage atomic.Uint64
}

func newProcessInfo(pid int) (*processInfo, error) {
	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		return nil, err
	}
	return &processInfo{proc: proc}, nil
}

func (p *processInfo) Update() error {
	mem, err := p.proc.MemoryInfo()
	if err != nil {
		return err
	}
	cpu, err := p.proc.Percent(0)
	if err != nil {
		return err
	}
	p.cpuUsage.Store(math.Float64bits(cpu))
	p.memoryUsage.Store(mem.RSS)
	return nil
}

// CPUUsage returns the CPU usage in percent since the previous Update.
func (p *processInfo) CPUUsage() float64 {
	return math.Float64frombits(p.cpuUsage.Load())
}

// MemoryUsage returns the resident set size in bytes.
func (p *processInfo) MemoryUsage() uint64 {
	return p.memoryUsage.Load()
}
