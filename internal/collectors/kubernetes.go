package collectors

import (
	"context"
	"fmt"
	"math"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"go.uber.org/zap"

	"github.com/bundlescope/bundlescope/internal/config"
	"github.com/bundlescope/bundlescope/internal/models"
)

// LiveCollector builds a BundleContext directly from a running cluster, so
// the same analysis flow works without a support bundle on disk.
type LiveCollector struct {
	clientset    kubernetes.Interface
	alertmanager *AlertManagerCollector
	contextName  string
	logger       *zap.Logger
}

func NewLiveCollector(cfg *config.Config, logger *zap.Logger) (*LiveCollector, error) {
	k8sConfig, err := buildKubeConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes config: %w", err)
	}

	clientset, err := kubernetes.NewForConfig(k8sConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes client: %w", err)
	}

	return newLiveCollector(cfg, clientset, logger), nil
}

func newLiveCollector(cfg *config.Config, clientset kubernetes.Interface, logger *zap.Logger) *LiveCollector {
	collector := &LiveCollector{
		clientset:   clientset,
		contextName: cfg.Kubernetes.Context,
		logger:      logger,
	}
	if cfg.AlertManager.URL != "" {
		collector.alertmanager = NewAlertManagerCollector(cfg)
	}
	return collector
}

func buildKubeConfig(cfg *config.Config) (*rest.Config, error) {
	if cfg.Kubernetes.Kubeconfig != "" {
		// Use kubeconfig file
		return clientcmd.BuildConfigFromFlags("", cfg.Kubernetes.Kubeconfig)
	}

	// Use in-cluster config
	k8sConfig, err := rest.InClusterConfig()
	if err == nil {
		return k8sConfig, nil
	}

	// Fallback to default kubeconfig
	loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
	configOverrides := &clientcmd.ConfigOverrides{}
	if cfg.Kubernetes.Context != "" {
		configOverrides.CurrentContext = cfg.Kubernetes.Context
	}
	return clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
		loadingRules, configOverrides).ClientConfig()
}

func (l *LiveCollector) Path() string {
	if l.contextName != "" {
		return "live:" + l.contextName
	}
	return "live:default"
}

func (l *LiveCollector) Collect(ctx context.Context) (*models.BundleContext, error) {
	summary, err := l.collectSummary(ctx)
	if err != nil {
		return nil, err
	}

	bundle := &models.BundleContext{
		Path:        l.Path(),
		CollectedAt: time.Now(),
		Summary:     summary,
	}

	events, err := l.collectWarningEvents(ctx)
	if err != nil {
		l.logger.Warn("failed to collect events", zap.Error(err))
	} else {
		bundle.Events = events
		summary.Overview.WarningEvents = len(events)
	}

	if l.alertmanager != nil {
		alerts, err := l.alertmanager.GetBundleAlerts(ctx)
		if err != nil {
			l.logger.Warn("failed to collect alerts", zap.Error(err))
		} else {
			bundle.Alerts = alerts
			summary.Overview.CriticalAlerts = len(alerts.Critical)
			summary.Overview.WarningAlerts = len(alerts.Warning)
		}
	}

	return bundle, nil
}

// Container waiting reasons that mark a pod as failing.
var badWaitingReasons = map[string]bool{
	"CrashLoopBackOff":           true,
	"ImagePullBackOff":           true,
	"ErrImagePull":               true,
	"CreateContainerConfigError": true,
	"CreateContainerError":       true,
	"InvalidImageName":           true,
	"RunContainerError":          true,
}

func (l *LiveCollector) collectSummary(ctx context.Context) (*models.BundleHealthSummary, error) {
	summary := &models.BundleHealthSummary{}

	nsList, err := l.clientset.CoreV1().Namespaces().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list namespaces: %w", err)
	}
	for i := range nsList.Items {
		summary.Overview.Namespaces = append(summary.Overview.Namespaces, nsList.Items[i].Name)
	}
	summary.Overview.TotalNamespaces = len(summary.Overview.Namespaces)

	podList, err := l.clientset.CoreV1().Pods("").List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list pods: %w", err)
	}
	for i := range podList.Items {
		pod := &podList.Items[i]
		summary.Overview.TotalPods++

		if reason, failing := failingReason(pod); failing {
			summary.Overview.FailingPods++
			summary.FailingPods = append(summary.FailingPods, models.FailingPod{
				Namespace: pod.Namespace,
				Name:      pod.Name,
				Status:    string(pod.Status.Phase),
				Reason:    reason,
				Restarts:  maxRestarts(pod),
			})
			continue
		}
		if pod.Status.Phase == corev1.PodPending {
			summary.Overview.PendingPods++
		}
	}

	deployList, err := l.clientset.AppsV1().Deployments("").List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list deployments: %w", err)
	}
	for i := range deployList.Items {
		dep := &deployList.Items[i]
		desired := int32(1)
		if dep.Spec.Replicas != nil {
			desired = *dep.Spec.Replicas
		}
		if dep.Status.ReadyReplicas < desired {
			summary.UnhealthyDeployments = append(summary.UnhealthyDeployments, models.UnhealthyDeployment{
				Namespace:       dep.Namespace,
				Name:            dep.Name,
				ReadyReplicas:   dep.Status.ReadyReplicas,
				DesiredReplicas: desired,
			})
		}
	}

	pvcList, err := l.clientset.CoreV1().PersistentVolumeClaims("").List(ctx, metav1.ListOptions{})
	if err != nil {
		l.logger.Warn("failed to list PVCs", zap.Error(err))
	} else {
		for i := range pvcList.Items {
			pvc := &pvcList.Items[i]
			if pvc.Status.Phase == corev1.ClaimPending {
				summary.PendingPVCs = append(summary.PendingPVCs,
					fmt.Sprintf("%s/%s", pvc.Namespace, pvc.Name))
			}
		}
	}

	summary.Overview.HealthScore = healthScore(
		summary.Overview.TotalPods+len(deployList.Items),
		summary.Overview.FailingPods+len(summary.UnhealthyDeployments),
	)

	return summary, nil
}

func (l *LiveCollector) collectWarningEvents(ctx context.Context) ([]models.BundleEvent, error) {
	eventList, err := l.clientset.CoreV1().Events("").List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	var events []models.BundleEvent
	for i := range eventList.Items {
		ev := &eventList.Items[i]
		if ev.Type != "Warning" {
			continue
		}
		events = append(events, models.BundleEvent{
			Type:      ev.Type,
			Reason:    ev.Reason,
			Message:   ev.Message,
			Namespace: ev.Namespace,
			Object:    fmt.Sprintf("%s/%s", ev.InvolvedObject.Kind, ev.InvolvedObject.Name),
			Count:     ev.Count,
			LastSeen:  ev.LastTimestamp.Time,
		})
	}
	return events, nil
}

func failingReason(pod *corev1.Pod) (string, bool) {
	for i := range pod.Status.ContainerStatuses {
		cs := &pod.Status.ContainerStatuses[i]
		if cs.State.Waiting != nil && badWaitingReasons[cs.State.Waiting.Reason] {
			return cs.State.Waiting.Reason, true
		}
		if cs.LastTerminationState.Terminated != nil &&
			cs.LastTerminationState.Terminated.Reason == "OOMKilled" &&
			cs.RestartCount > 0 {
			return "OOMKilled", true
		}
	}

	if pod.Status.Phase == corev1.PodFailed || pod.Status.Phase == corev1.PodUnknown {
		return pod.Status.Reason, true
	}
	return "", false
}

func maxRestarts(pod *corev1.Pod) int32 {
	var restarts int32
	for i := range pod.Status.ContainerStatuses {
		if pod.Status.ContainerStatuses[i].RestartCount > restarts {
			restarts = pod.Status.ContainerStatuses[i].RestartCount
		}
	}
	return restarts
}

// healthScore is the share of checked resources that are healthy, 0-100.
// An empty cluster scores 100.
func healthScore(checked, unhealthy int) int {
	if checked == 0 {
		return 100
	}
	return int(math.Round(float64(checked-unhealthy) / float64(checked) * 100))
}
