// Copyright 2024 Nokia
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"
)

type workerStatus struct {
	ID    int    `json:"id"`
	State string `json:"state"`
}

type poolStatus struct {
	Name    string         `json:"name"`
	Size    int            `json:"size"`
	Alive   int            `json:"alive"`
	Pending int            `json:"pending"`
	Workers []workerStatus `json:"workers"`
}

func (s *Server) handleWorkers(w http.ResponseWriter, _ *http.Request) {
	st := poolStatus{
		Name:    s.pool.Name(),
		Size:    s.pool.Size(),
		Alive:   s.pool.Alive(),
		Pending: s.pool.Pending(),
	}
	for _, wi := range s.pool.Workers() {
		st.Workers = append(st.Workers, workerStatus{ID: wi.ID, State: wi.State.String()})
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(st); err != nil {
		log.Errorf("failed to encode worker status: %v", err)
	}
}
