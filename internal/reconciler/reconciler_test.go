// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package reconciler

import (
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/go-logr/logr/funcr"
	. "github.com/onsi/gomega"

	apiv1 "github.com/controlplaneio-fluxcd/conancache/api/v1"
	"github.com/controlplaneio-fluxcd/conancache/internal/conan"
)

func testGraph() apiv1.Graph {
	return apiv1.Graph{
		{IsRef: false, Reference: "conanfile.txt"},
		{
			IsRef:           true,
			Reference:       "zlib/1.2.11",
			Revision:        "0",
			ID:              "6af9cc7cb931c5ad942174fd7838eb655717c709",
			PackageRevision: "0",
			Binary:          "Cache",
			Remote:          &apiv1.GraphRemote{Name: "conan-center", URL: "https://conan.example.com"},
			License:         apiv1.StringList{"Zlib"},
		},
		{
			IsRef:     true,
			Reference: "bzip2/1.0.8@conan/stable",
			Revision:  "0",
			ID:        "da606cf731e334010b0bf6e85a2a6f891b9f36b0",
			Binary:    "Missing",
			Remote:    &apiv1.GraphRemote{URL: "https://conan.example.com"},
		},
	}
}

func testLock() *apiv1.Lock {
	return &apiv1.Lock{
		Version: "0.4",
		GraphLock: apiv1.GraphLock{
			Nodes: map[string]apiv1.LockNode{
				"0": {Path: "conanfile.txt", Requires: []string{"1", "2"}},
				"1": {Ref: "zlib/1.2.11#0", PackageID: "6af9cc7cb931c5ad942174fd7838eb655717c709", PackageRevision: "0"},
				"2": {Ref: "bzip2/1.0.8@conan/stable#0", PackageID: "lockedid"},
			},
		},
	}
}

func TestReconcile(t *testing.T) {
	g := NewWithT(t)

	nodes, err := Reconcile(testGraph(), testLock())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(nodes).To(HaveLen(2))

	g.Expect(nodes[0].Ref.String()).To(Equal("zlib/1.2.11"))
	g.Expect(nodes[0].Binary).To(Equal(conan.BinaryCached))
	g.Expect(nodes[0].Remote.Name).To(Equal("conan-center"))
	g.Expect(nodes[0].Lock.NodeID).To(Equal("1"))
	g.Expect(nodes[0].License).To(ConsistOf("Zlib"))

	g.Expect(nodes[1].Ref.User).To(Equal("conan"))
	g.Expect(nodes[1].Binary).To(Equal(conan.BinaryMissing))
	g.Expect(nodes[1].LocalPackageID()).To(Equal("lockedid"))

	for _, n := range nodes {
		g.Expect(n.Lock.Ref).To(Equal(n.Ref.String() + "#" + n.RecipeRevision))
	}
}

func TestReconcile_MissingLockData(t *testing.T) {
	g := NewWithT(t)

	lock := testLock()
	delete(lock.GraphLock.Nodes, "2")

	nodes, err := Reconcile(testGraph(), lock)
	g.Expect(err).To(HaveOccurred())
	g.Expect(nodes).To(BeNil())
	g.Expect(errors.Is(err, conan.ErrMissingLockData)).To(BeTrue())

	var mErr *conan.MissingLockDataError
	g.Expect(errors.As(err, &mErr)).To(BeTrue())
	g.Expect(mErr.FullRef).To(Equal("bzip2/1.0.8@conan/stable#0"))
	g.Expect(mErr.Index).To(Equal(2))
}

func TestReconcile_RevisionMismatch(t *testing.T) {
	g := NewWithT(t)

	graph := testGraph()
	graph[1].Revision = "f1fadf0d3b196dc0332750354ad8ab7b"

	_, err := Reconcile(graph, testLock())
	g.Expect(err).To(MatchError(ContainSubstring("zlib/1.2.11#f1fadf0d3b196dc0332750354ad8ab7b")))
}

func TestReconcile_ExplicitUnsetUserChannel(t *testing.T) {
	g := NewWithT(t)

	lock := testLock()
	lock.GraphLock.Nodes["1"] = apiv1.LockNode{Ref: "zlib/1.2.11@_/_#0", PackageID: "abc"}

	nodes, err := Reconcile(testGraph(), lock)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(nodes[0].Lock.PackageID).To(Equal("abc"))
}

func TestReconcile_DuplicateLockEntries(t *testing.T) {
	g := NewWithT(t)

	const hostID = "6af9cc7cb931c5ad942174fd7838eb655717c709"
	lock := testLock()
	lock.GraphLock.Nodes["1"] = apiv1.LockNode{Ref: "bzip2/1.0.8@conan/stable#0", PackageID: "other"}
	lock.GraphLock.Nodes["2"] = apiv1.LockNode{Ref: "zlib/1.2.11#0", PackageID: hostID, PackageRevision: "0"}
	lock.GraphLock.Nodes["10"] = apiv1.LockNode{Ref: "zlib/1.2.11#0", PackageID: "buildcontextid"}

	var logs []string
	log := funcr.New(func(prefix, args string) {
		logs = append(logs, args)
	}, funcr.Options{Verbosity: 1})

	nodes, err := Reconcile(testGraph(), lock, WithLogger(log))
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(nodes[0].Lock.NodeID).To(Equal("2"))
	g.Expect(nodes[0].Lock.PackageID).To(Equal(hostID))

	g.Expect(logs).To(HaveLen(1))
	g.Expect(logs[0]).To(ContainSubstring("several lock entries match the reference"))
	g.Expect(logs[0]).To(ContainSubstring(`"selected"="2"`))

	// without a package id match the lowest node id wins
	graph := testGraph()
	graph[1].ID = "unknown"
	nodes, err = Reconcile(graph, lock)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(nodes[0].Lock.NodeID).To(Equal("2"))
}

func TestLessNodeID(t *testing.T) {
	g := NewWithT(t)

	ids := []string{"10", "2", "b", "1", "a"}
	sort.Slice(ids, func(i, j int) bool { return lessNodeID(ids[i], ids[j]) })
	g.Expect(strings.Join(ids, ",")).To(Equal("1,2,10,a,b"))
}

func TestReconcile_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(apiv1.Graph)
		errMsg string
	}{
		{
			name:   "invalid reference",
			mutate: func(gr apiv1.Graph) { gr[1].Reference = "zlib" },
			errMsg: "invalid reference",
		},
		{
			name:   "unknown binary state",
			mutate: func(gr apiv1.Graph) { gr[1].Binary = "Invalid" },
			errMsg: "unknown binary state",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)
			graph := testGraph()
			tt.mutate(graph)
			_, err := Reconcile(graph, testLock())
			g.Expect(err).To(MatchError(ContainSubstring(tt.errMsg)))
		})
	}
}

func TestCheckLockVersion(t *testing.T) {
	tests := []struct {
		name       string
		version    string
		constraint string
		wantErr    bool
	}{
		{name: "default accepts 0.4", version: "0.4"},
		{name: "default accepts 0.5", version: "0.5"},
		{name: "default rejects 0.3", version: "0.3", wantErr: true},
		{name: "empty version", version: "", wantErr: true},
		{name: "custom constraint", version: "0.4", constraint: "< 0.4", wantErr: true},
		{name: "invalid constraint", version: "0.4", constraint: "not-a-range", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)
			err := CheckLockVersion(&apiv1.Lock{Version: tt.version}, tt.constraint)
			if tt.wantErr {
				g.Expect(err).To(HaveOccurred())
			} else {
				g.Expect(err).NotTo(HaveOccurred())
			}
		})
	}
}
