package domain

type EntityKind string

const (
	KindResource  EntityKind = "Resource"
	KindComponent EntityKind = "Component"
	KindUser      EntityKind = "User"
	KindGroup     EntityKind = "Group"
	KindSystem    EntityKind = "System"
)

func (k EntityKind) String() string {
	return string(k)
}

const (
	DefaultAPIVersion = "backstage.io/v1alpha1"
	DefaultNamespace  = "default"

	TypeKubernetesCluster = "kubernetes-cluster"
	TypeAWSAccount        = "aws-account"
)
