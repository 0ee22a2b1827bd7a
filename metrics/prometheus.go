package metrics

import "github.com/prometheus/client_golang/prometheus"

var HttpRequestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests received",
	},
	[]string{"endpoint", "status", "method"},
)

var HttpRequestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"endpoint", "method"},
)

var HttpErrorsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_errors_total",
		Help: "Total number of failed HTTP requests (4xx/5xx)",
	},
	[]string{"endpoint", "status", "method"},
)

var HttpRateLimitRejectionsTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "http_rate_limit_rejections_total",
		Help: "Total number of HTTP requests rejected due to rate limiting",
	},
)

var PushDispatchesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "push_dispatches_total",
		Help: "Total number of fan-out dispatch calls",
	},
	[]string{"kind"},
)

var PushDeliveredTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "push_delivered_total",
		Help: "Total number of push messages accepted by a push service",
	},
)

var PushFailedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "push_failed_total",
		Help: "Total number of failed push delivery attempts",
	},
	[]string{"reason"},
)

var PushSubscriptionsPrunedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "push_subscriptions_pruned_total",
		Help: "Total number of subscriptions removed after a gone endpoint",
	},
)

var PushSendDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "push_send_duration_seconds",
		Help:    "Time taken to deliver one push message to a push service",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"urgency"},
)

var PushFanoutDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "push_fanout_duration_seconds",
		Help:    "Wall-clock time for a whole fan-out dispatch",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"kind"},
)

var SMSSendDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "sms_send_duration_seconds",
		Help:    "Time taken to send SOS SMS via external providers",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"provider"},
)

var SMSRetriesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "sms_retries_total",
		Help: "Total number of SOS SMS retries",
	},
	[]string{"reason"},
)

var KafkaPublishFailureTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_publish_failure_total",
		Help: "Total number of failed Kafka publishes",
	},
	[]string{"topic"},
)

var KafkaPublishSuccessTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_publish_success_total",
		Help: "Total number of successful Kafka publishes",
	},
	[]string{"topic"},
)

var KafkaSubscriberFailureTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_subscriber_failure_total",
		Help: "Total number of failed Kafka subscribes",
	},
	[]string{"topic"},
)

var KafkaConsumerLag = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "kafka_consumer_lag",
		Help: "Lag of Kafka consumer group per topic",
	},
	[]string{"group", "topic"},
)

var ExternalAPISuccessTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "external_api_success_total",
		Help: "Total number of successful external API calls",
	},
	[]string{"provider", "service"},
)

var ExternalAPIFailureTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "external_api_failure_total",
		Help: "Total number of failed external API calls",
	},
	[]string{"provider", "service"},
)

func InitAPIMetrics() {
	prometheus.MustRegister(HttpRequestsTotal)
	prometheus.MustRegister(HttpRequestDuration)
	prometheus.MustRegister(HttpErrorsTotal)
	prometheus.MustRegister(HttpRateLimitRejectionsTotal)
}

func InitPushMetrics() {
	prometheus.MustRegister(PushDispatchesTotal)
	prometheus.MustRegister(PushDeliveredTotal)
	prometheus.MustRegister(PushFailedTotal)
	prometheus.MustRegister(PushSubscriptionsPrunedTotal)
	prometheus.MustRegister(PushSendDuration)
	prometheus.MustRegister(PushFanoutDuration)
}

func InitSMSMetrics() {
	prometheus.MustRegister(SMSSendDuration)
	prometheus.MustRegister(SMSRetriesTotal)
	prometheus.MustRegister(ExternalAPISuccessTotal)
	prometheus.MustRegister(ExternalAPIFailureTotal)
}

func InitKafkaMetrics() {
	prometheus.MustRegister(KafkaPublishFailureTotal)
	prometheus.MustRegister(KafkaPublishSuccessTotal)
	prometheus.MustRegister(KafkaSubscriberFailureTotal)
	prometheus.MustRegister(KafkaConsumerLag)
}
