package collectors

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/bundlescope/bundlescope/internal/config"
	"github.com/bundlescope/bundlescope/internal/models"
)

func fakeLiveCollector(objects ...runtime.Object) *LiveCollector {
	cfg := &config.Config{}
	cfg.Kubernetes.Context = "test-cluster"
	return newLiveCollector(cfg, fake.NewSimpleClientset(objects...), zap.NewNop())
}

func healthyPod(ns, name string) *corev1.Pod {
	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Namespace: ns, Name: name},
		Status:     corev1.PodStatus{Phase: corev1.PodRunning},
	}
}

func crashLoopPod(ns, name string) *corev1.Pod {
	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Namespace: ns, Name: name},
		Status: corev1.PodStatus{
			Phase: corev1.PodRunning,
			ContainerStatuses: []corev1.ContainerStatus{{
				RestartCount: 7,
				State: corev1.ContainerState{
					Waiting: &corev1.ContainerStateWaiting{Reason: "CrashLoopBackOff"},
				},
			}},
		},
	}
}

func oomKilledPod(ns, name string) *corev1.Pod {
	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Namespace: ns, Name: name},
		Status: corev1.PodStatus{
			Phase: corev1.PodRunning,
			ContainerStatuses: []corev1.ContainerStatus{{
				RestartCount: 3,
				LastTerminationState: corev1.ContainerState{
					Terminated: &corev1.ContainerStateTerminated{Reason: "OOMKilled"},
				},
			}},
		},
	}
}

func TestLiveCollectorPath(t *testing.T) {
	assert.Equal(t, "live:test-cluster", fakeLiveCollector().Path())

	cfg := &config.Config{}
	collector := newLiveCollector(cfg, fake.NewSimpleClientset(), zap.NewNop())
	assert.Equal(t, "live:default", collector.Path())
}

func TestLiveCollectorCollect(t *testing.T) {
	replicas := int32(3)
	objects := []runtime.Object{
		&corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: "default"}},
		&corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: "db"}},

		healthyPod("default", "web-1"),
		crashLoopPod("db", "postgres-0"),
		oomKilledPod("db", "etl-1"),
		&corev1.Pod{
			ObjectMeta: metav1.ObjectMeta{Namespace: "db", Name: "stuck"},
			Status:     corev1.PodStatus{Phase: corev1.PodPending},
		},

		&appsv1.Deployment{
			ObjectMeta: metav1.ObjectMeta{Namespace: "db", Name: "pgbouncer"},
			Spec:       appsv1.DeploymentSpec{Replicas: &replicas},
			Status:     appsv1.DeploymentStatus{ReadyReplicas: 1},
		},

		&corev1.PersistentVolumeClaim{
			ObjectMeta: metav1.ObjectMeta{Namespace: "db", Name: "data-postgres-2"},
			Status:     corev1.PersistentVolumeClaimStatus{Phase: corev1.ClaimPending},
		},

		&corev1.Event{
			ObjectMeta:     metav1.ObjectMeta{Namespace: "db", Name: "ev-1"},
			Type:           "Warning",
			Reason:         "BackOff",
			Message:        "Back-off restarting failed container",
			Count:          12,
			InvolvedObject: corev1.ObjectReference{Kind: "Pod", Name: "postgres-0"},
			LastTimestamp:  metav1.Time{Time: time.Now()},
		},
		&corev1.Event{
			ObjectMeta:     metav1.ObjectMeta{Namespace: "default", Name: "ev-2"},
			Type:           "Normal",
			Reason:         "Pulled",
			Message:        "image pulled",
			InvolvedObject: corev1.ObjectReference{Kind: "Pod", Name: "web-1"},
		},
	}

	bundle, err := fakeLiveCollector(objects...).Collect(context.Background())
	require.NoError(t, err)

	require.NotNil(t, bundle.Summary)
	ov := bundle.Summary.Overview

	assert.Equal(t, 4, ov.TotalPods)
	assert.Equal(t, 2, ov.FailingPods)
	assert.Equal(t, 1, ov.PendingPods)
	assert.Equal(t, 2, ov.TotalNamespaces)
	assert.ElementsMatch(t, []string{"default", "db"}, ov.Namespaces)

	// 4 pods + 1 deployment checked, 2 failing pods + 1 unhealthy deployment.
	assert.Equal(t, 40, ov.HealthScore)

	reasons := map[string]models.FailingPod{}
	for _, p := range bundle.Summary.FailingPods {
		reasons[p.Reason] = p
	}
	require.Contains(t, reasons, "CrashLoopBackOff")
	assert.Equal(t, int32(7), reasons["CrashLoopBackOff"].Restarts)
	require.Contains(t, reasons, "OOMKilled")

	require.Len(t, bundle.Summary.UnhealthyDeployments, 1)
	assert.Equal(t, int32(1), bundle.Summary.UnhealthyDeployments[0].ReadyReplicas)
	assert.Equal(t, int32(3), bundle.Summary.UnhealthyDeployments[0].DesiredReplicas)

	assert.Equal(t, []string{"db/data-postgres-2"}, bundle.Summary.PendingPVCs)

	require.Len(t, bundle.Events, 1, "normal events must be filtered out")
	assert.Equal(t, "BackOff", bundle.Events[0].Reason)
	assert.Equal(t, "Pod/postgres-0", bundle.Events[0].Object)
	assert.Equal(t, 1, ov.WarningEvents)

	assert.Nil(t, bundle.Alerts, "no alertmanager configured")
	assert.Equal(t, "live:test-cluster", bundle.Path)
}

func TestLiveCollectorEmptyCluster(t *testing.T) {
	bundle, err := fakeLiveCollector().Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 100, bundle.Summary.Overview.HealthScore, "empty cluster scores perfect health")
	assert.Zero(t, bundle.Summary.Overview.TotalPods)
}

func TestHealthScore(t *testing.T) {
	assert.Equal(t, 100, healthScore(0, 0))
	assert.Equal(t, 100, healthScore(10, 0))
	assert.Equal(t, 50, healthScore(10, 5))
	assert.Equal(t, 0, healthScore(3, 3))
	assert.Equal(t, 67, healthScore(3, 1))
}
